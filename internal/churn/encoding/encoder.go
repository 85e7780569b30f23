// internal/churn/encoding/encoder.go
package encoding

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"churn-workers/internal/churn"
)

var (
	ErrUnknownLabel = errors.New("unknown label")
	ErrUnknownCode  = errors.New("unknown code")
	ErrUnknownField = errors.New("no encoder for field")
)

// LabelEncoder maps the labels of one categorical field to integer codes.
// Codes follow the lexicographic order of the labels.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

func NewLabelEncoder(labels []string) (*LabelEncoder, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("label encoder needs at least one class")
	}

	classes := append([]string(nil), labels...)
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate class %q", c)
		}
		index[c] = i
	}
	return &LabelEncoder{classes: classes, index: index}, nil
}

func (e *LabelEncoder) Transform(label string) (int, error) {
	code, ok := e.index[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return code, nil
}

func (e *LabelEncoder) Inverse(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", fmt.Errorf("%w: %d", ErrUnknownCode, code)
	}
	return e.classes[code], nil
}

// Classes returns the labels in code order.
func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

// Set holds the encoders for every categorical feature. It satisfies
// churn.LabelTransformer.
type Set struct {
	encoders map[string]*LabelEncoder
}

// NewSet builds a set from field → labels.
func NewSet(classes map[string][]string) (*Set, error) {
	s := &Set{encoders: make(map[string]*LabelEncoder, len(classes))}
	for field, labels := range classes {
		enc, err := NewLabelEncoder(labels)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		s.encoders[field] = enc
	}
	return s, nil
}

// DefaultSet returns the encoders the bundled model was trained with.
func DefaultSet() *Set {
	s, _ := NewSet(map[string][]string{
		churn.FieldGeography: {"France", "Germany", "Spain"},
		churn.FieldGender:    {"Female", "Male"},
	})
	return s
}

// LoadSet reads a JSON artifact of the form {"Geography": [...], "Gender": [...]}.
func LoadSet(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read encoders: %w", err)
	}

	var classes map[string][]string
	if err := json.Unmarshal(data, &classes); err != nil {
		return nil, fmt.Errorf("failed to parse encoders: %w", err)
	}

	for _, field := range []string{churn.FieldGeography, churn.FieldGender} {
		if _, ok := classes[field]; !ok {
			return nil, fmt.Errorf("encoders artifact missing field %s", field)
		}
	}
	return NewSet(classes)
}

func (s *Set) encoder(field string) (*LabelEncoder, error) {
	enc, ok := s.encoders[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return enc, nil
}

func (s *Set) Transform(field, label string) (float64, error) {
	enc, err := s.encoder(field)
	if err != nil {
		return 0, err
	}
	code, err := enc.Transform(label)
	if err != nil {
		return 0, err
	}
	return float64(code), nil
}

func (s *Set) Inverse(field string, code int) (string, error) {
	enc, err := s.encoder(field)
	if err != nil {
		return "", err
	}
	return enc.Inverse(code)
}

// Classes returns the labels of a field, or nil if the field is not encoded.
func (s *Set) Classes(field string) []string {
	enc, ok := s.encoders[field]
	if !ok {
		return nil
	}
	return enc.Classes()
}
