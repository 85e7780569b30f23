// internal/churn/record.go
package churn

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Feature names of the fixed scoring schema.
const (
	FieldCreditScore     = "CreditScore"
	FieldGeography       = "Geography"
	FieldGender          = "Gender"
	FieldAge             = "Age"
	FieldTenure          = "Tenure"
	FieldBalance         = "Balance"
	FieldNumOfProducts   = "NumOfProducts"
	FieldHasCrCard       = "HasCrCard"
	FieldIsActiveMember  = "IsActiveMember"
	FieldEstimatedSalary = "EstimatedSalary"
)

// Domain bounds for the bounded integer fields.
const (
	MinTenure        = 0
	MaxTenure        = 10
	MinNumOfProducts = 1
	MaxNumOfProducts = 4
)

var (
	ErrValidation         = errors.New("VALIDATION_FAILED")
	ErrInvalidProbability = errors.New("INVALID_PROBABILITY")
)

// FieldNames lists the required features in model column order.
var FieldNames = []string{
	FieldCreditScore,
	FieldGeography,
	FieldGender,
	FieldAge,
	FieldTenure,
	FieldBalance,
	FieldNumOfProducts,
	FieldHasCrCard,
	FieldIsActiveMember,
	FieldEstimatedSalary,
}

type fieldDomain struct {
	min     float64
	max     float64
	integer bool
}

var domains = map[string]fieldDomain{
	FieldCreditScore:     {min: 0, max: math.MaxFloat64},
	FieldGeography:       {min: 0, max: math.MaxFloat64, integer: true},
	FieldGender:          {min: 0, max: math.MaxFloat64, integer: true},
	FieldAge:             {min: 0, max: math.MaxFloat64},
	FieldTenure:          {min: MinTenure, max: MaxTenure, integer: true},
	FieldBalance:         {min: 0, max: math.MaxFloat64},
	FieldNumOfProducts:   {min: MinNumOfProducts, max: MaxNumOfProducts, integer: true},
	FieldHasCrCard:       {min: 0, max: 1, integer: true},
	FieldIsActiveMember:  {min: 0, max: 1, integer: true},
	FieldEstimatedSalary: {min: 0, max: math.MaxFloat64},
}

// ValidationError reports the first offending field of a Feature Record.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// FeatureRecord is the numeric representation of one customer as the
// classifier sees it. Categorical fields are already encoded.
type FeatureRecord map[string]float64

// Clone returns an independent copy.
func (r FeatureRecord) Clone() FeatureRecord {
	out := make(FeatureRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Validate checks that all ten fields are present, that no unknown field is
// set and that every value lies inside its domain.
func (r FeatureRecord) Validate() error {
	for _, name := range FieldNames {
		v, ok := r[name]
		if !ok {
			return &ValidationError{Field: name, Reason: "required field missing"}
		}
		if err := checkDomain(name, v); err != nil {
			return err
		}
	}

	if len(r) != len(FieldNames) {
		extra := make([]string, 0)
		for name := range r {
			if _, known := domains[name]; !known {
				extra = append(extra, name)
			}
		}
		sort.Strings(extra)
		return &ValidationError{Field: extra[0], Reason: "field not allowed in schema"}
	}

	return nil
}

func checkDomain(name string, v float64) error {
	d := domains[name]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ValidationError{Field: name, Reason: "value must be finite"}
	}
	if d.integer && v != math.Trunc(v) {
		return &ValidationError{Field: name, Reason: fmt.Sprintf("value %v must be an integer", v)}
	}
	if v < d.min || v > d.max {
		if d.max == math.MaxFloat64 {
			return &ValidationError{Field: name, Reason: fmt.Sprintf("value %v must be >= %v", v, d.min)}
		}
		return &ValidationError{Field: name, Reason: fmt.Sprintf("value %v must be in [%v, %v]", v, d.min, d.max)}
	}
	return nil
}

// Vector returns the values in FieldNames order.
func (r FeatureRecord) Vector() []float64 {
	out := make([]float64, len(FieldNames))
	for i, name := range FieldNames {
		out[i] = r[name]
	}
	return out
}

// CheckProbability rejects NaN and values outside [0, 1].
func CheckProbability(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidProbability, p)
	}
	return nil
}
