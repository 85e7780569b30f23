// internal/churn/profile.go
package churn

import "fmt"

// Profile is the customer as entered on the dashboard form, with
// categorical fields still in label form.
type Profile struct {
	CustomerID      string  `json:"customerId,omitempty"`
	CreditScore     float64 `json:"creditScore"`
	Geography       string  `json:"geography"`
	Gender          string  `json:"gender"`
	Age             float64 `json:"age"`
	Tenure          int     `json:"tenure"`
	Balance         float64 `json:"balance"`
	NumOfProducts   int     `json:"numOfProducts"`
	HasCrCard       bool    `json:"hasCrCard"`
	IsActiveMember  bool    `json:"isActiveMember"`
	EstimatedSalary float64 `json:"estimatedSalary"`
}

// LabelTransformer maps a categorical label to its integer code.
type LabelTransformer interface {
	Transform(field, label string) (float64, error)
}

// FeatureRecord encodes the profile. The result is not validated.
func (p Profile) FeatureRecord(enc LabelTransformer) (FeatureRecord, error) {
	geo, err := enc.Transform(FieldGeography, p.Geography)
	if err != nil {
		return nil, fmt.Errorf("encode geography: %w", err)
	}
	gender, err := enc.Transform(FieldGender, p.Gender)
	if err != nil {
		return nil, fmt.Errorf("encode gender: %w", err)
	}

	return FeatureRecord{
		FieldCreditScore:     p.CreditScore,
		FieldGeography:       geo,
		FieldGender:          gender,
		FieldAge:             p.Age,
		FieldTenure:          float64(p.Tenure),
		FieldBalance:         p.Balance,
		FieldNumOfProducts:   float64(p.NumOfProducts),
		FieldHasCrCard:       boolToFloat(p.HasCrCard),
		FieldIsActiveMember:  boolToFloat(p.IsActiveMember),
		FieldEstimatedSalary: p.EstimatedSalary,
	}, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
