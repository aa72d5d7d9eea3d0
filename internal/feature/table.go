package feature

import (
	"fmt"
	"math"
)

// Category is a raw categorical cell. The zero value is a missing cell.
type Category struct {
	Value string
	Valid bool
}

// Cat wraps a present categorical value.
func Cat(v string) Category {
	return Category{Value: v, Valid: true}
}

// CatPtr converts an optional string, mapping nil to a missing cell.
func CatPtr(v *string) Category {
	if v == nil {
		return Category{}
	}
	return Category{Value: *v, Valid: true}
}

// RawTable is a column-oriented table of raw feature values, the encoder's
// input in both training and inference mode. Missing numeric cells are NaN;
// missing categorical cells have Valid=false. A column can also be absent
// from the table entirely, which the encoder tolerates.
type RawTable struct {
	n            int
	numericOrder []string
	numeric      map[string][]float64
	catOrder     []string
	categorical  map[string][]Category
}

// NewRawTable creates an empty table with n rows.
func NewRawTable(n int) *RawTable {
	return &RawTable{
		n:           n,
		numeric:     make(map[string][]float64),
		categorical: make(map[string][]Category),
	}
}

// Len returns the row count.
func (t *RawTable) Len() int { return t.n }

// SetNumeric adds or replaces a numeric column. NaN marks missing cells.
func (t *RawTable) SetNumeric(name string, values []float64) error {
	if len(values) != t.n {
		return fmt.Errorf("column %s: %d values for %d rows", name, len(values), t.n)
	}
	if _, exists := t.numeric[name]; !exists {
		t.numericOrder = append(t.numericOrder, name)
	}
	t.numeric[name] = values
	return nil
}

// SetCategorical adds or replaces a categorical column.
func (t *RawTable) SetCategorical(name string, values []Category) error {
	if len(values) != t.n {
		return fmt.Errorf("column %s: %d values for %d rows", name, len(values), t.n)
	}
	if _, exists := t.categorical[name]; !exists {
		t.catOrder = append(t.catOrder, name)
	}
	t.categorical[name] = values
	return nil
}

// HasNumeric reports whether a numeric column is present.
func (t *RawTable) HasNumeric(name string) bool {
	_, ok := t.numeric[name]
	return ok
}

// HasCategorical reports whether a categorical column is present.
func (t *RawTable) HasCategorical(name string) bool {
	_, ok := t.categorical[name]
	return ok
}

// Missing is the NaN sentinel for absent numeric cells.
func Missing() float64 { return math.NaN() }
