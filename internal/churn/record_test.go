package churn

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() FeatureRecord {
	return FeatureRecord{
		FieldCreditScore:     600,
		FieldGeography:       0,
		FieldGender:          0,
		FieldAge:             35,
		FieldTenure:          3,
		FieldBalance:         50000,
		FieldNumOfProducts:   1,
		FieldHasCrCard:       1,
		FieldIsActiveMember:  0,
		FieldEstimatedSalary: 50000,
	}
}

func TestFeatureRecord_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r FeatureRecord)
		wantField string
	}{
		{name: "valid record", mutate: func(r FeatureRecord) {}},
		{name: "missing tenure", mutate: func(r FeatureRecord) { delete(r, FieldTenure) }, wantField: FieldTenure},
		{name: "missing salary", mutate: func(r FeatureRecord) { delete(r, FieldEstimatedSalary) }, wantField: FieldEstimatedSalary},
		{name: "tenure above range", mutate: func(r FeatureRecord) { r[FieldTenure] = 11 }, wantField: FieldTenure},
		{name: "tenure fractional", mutate: func(r FeatureRecord) { r[FieldTenure] = 2.5 }, wantField: FieldTenure},
		{name: "zero products", mutate: func(r FeatureRecord) { r[FieldNumOfProducts] = 0 }, wantField: FieldNumOfProducts},
		{name: "five products", mutate: func(r FeatureRecord) { r[FieldNumOfProducts] = 5 }, wantField: FieldNumOfProducts},
		{name: "negative balance", mutate: func(r FeatureRecord) { r[FieldBalance] = -1 }, wantField: FieldBalance},
		{name: "active flag not boolean", mutate: func(r FeatureRecord) { r[FieldIsActiveMember] = 2 }, wantField: FieldIsActiveMember},
		{name: "NaN credit score", mutate: func(r FeatureRecord) { r[FieldCreditScore] = math.NaN() }, wantField: FieldCreditScore},
		{name: "infinite age", mutate: func(r FeatureRecord) { r[FieldAge] = math.Inf(1) }, wantField: FieldAge},
		{name: "negative geography code", mutate: func(r FeatureRecord) { r[FieldGeography] = -1 }, wantField: FieldGeography},
		{name: "unknown field", mutate: func(r FeatureRecord) { r["Surname"] = 1 }, wantField: "Surname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(r)

			err := r.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestFeatureRecord_CloneIsIndependent(t *testing.T) {
	r := validRecord()
	c := r.Clone()
	c[FieldTenure] = 9

	assert.Equal(t, 3.0, r[FieldTenure])
	assert.Equal(t, 9.0, c[FieldTenure])
}

func TestFeatureRecord_Vector(t *testing.T) {
	v := validRecord().Vector()
	require.Len(t, v, len(FieldNames))
	assert.Equal(t, 600.0, v[0])
	assert.Equal(t, 3.0, v[4])
	assert.Equal(t, 50000.0, v[9])
}

func TestCheckProbability(t *testing.T) {
	assert.NoError(t, CheckProbability(0))
	assert.NoError(t, CheckProbability(1))
	assert.NoError(t, CheckProbability(0.42))
	assert.ErrorIs(t, CheckProbability(-0.01), ErrInvalidProbability)
	assert.ErrorIs(t, CheckProbability(1.01), ErrInvalidProbability)
	assert.ErrorIs(t, CheckProbability(math.NaN()), ErrInvalidProbability)
}

type mapEncoder map[string]map[string]float64

func (m mapEncoder) Transform(field, label string) (float64, error) {
	code, ok := m[field][label]
	if !ok {
		return 0, errors.New("unknown label")
	}
	return code, nil
}

func TestProfile_FeatureRecord(t *testing.T) {
	enc := mapEncoder{
		FieldGeography: {"France": 0, "Germany": 1, "Spain": 2},
		FieldGender:    {"Female": 0, "Male": 1},
	}

	p := Profile{
		CustomerID:      "cust-1",
		CreditScore:     720,
		Geography:       "Germany",
		Gender:          "Male",
		Age:             41,
		Tenure:          6,
		Balance:         120000.5,
		NumOfProducts:   2,
		HasCrCard:       true,
		IsActiveMember:  false,
		EstimatedSalary: 88000,
	}

	rec, err := p.FeatureRecord(enc)
	require.NoError(t, err)
	require.NoError(t, rec.Validate())

	assert.Equal(t, 1.0, rec[FieldGeography])
	assert.Equal(t, 1.0, rec[FieldGender])
	assert.Equal(t, 6.0, rec[FieldTenure])
	assert.Equal(t, 1.0, rec[FieldHasCrCard])
	assert.Equal(t, 0.0, rec[FieldIsActiveMember])

	p.Geography = "Italy"
	_, err = p.FeatureRecord(enc)
	assert.Error(t, err)
}
