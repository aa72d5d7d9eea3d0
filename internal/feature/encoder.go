package feature

import (
	"fmt"
	"math"
	"sort"
)

// Default feature lists for the churn model. Configured lists are
// intersected with the columns actually present, so partial inputs encode
// without error.
var (
	DefaultNumericFeatures = []string{
		"tenure_days",
		"recency_days",
		"n_txn_past",
		"sum_amt_past",
		"avg_amt_past",
		"std_amt_past",
	}
	DefaultCategoricalFeatures = []string{
		"Primary State",
		"Gender",
		"Employer",
		"Groups",
	}
)

// Encoder converts a RawTable into a fixed-width numeric Matrix: numeric
// columns first (missing cells filled with zero), then one one-hot block per
// categorical column with an explicit trailing column for missing values.
//
// The same Encoder serves both directions. FitTransform derives the
// canonical schema from the observed data; Transform conforms to a persisted
// schema, zero-filling columns the input lacks and dropping indicator
// columns for category values never seen at training time.
type Encoder struct {
	NumericFeatures     []string
	CategoricalFeatures []string
}

// NewEncoder creates an Encoder with the default churn feature lists.
func NewEncoder() *Encoder {
	return &Encoder{
		NumericFeatures:     DefaultNumericFeatures,
		CategoricalFeatures: DefaultCategoricalFeatures,
	}
}

// MissingSuffix names the one-hot column that flags a missing categorical
// cell, e.g. "Employer_nan". Unknown is a signal, not a dropped row.
const MissingSuffix = "_nan"

// FitTransform encodes in training mode: the produced column set, in the
// order produced, becomes the canonical schema. Encoding the same table
// twice yields identical columns and values.
func (e *Encoder) FitTransform(t *RawTable) (*Matrix, *Schema, error) {
	m, err := e.encode(t)
	if err != nil {
		return nil, nil, err
	}
	return m, NewSchema(m.Columns), nil
}

// Transform encodes in inference mode, reindexing onto schema: columns the
// schema names but the input cannot produce are zero-filled, columns the
// input produces but the schema lacks are dropped.
func (e *Encoder) Transform(t *RawTable, schema *Schema) (*Matrix, error) {
	if schema == nil || len(schema.Columns) == 0 {
		return nil, fmt.Errorf("transform: empty schema")
	}
	m, err := e.encode(t)
	if err != nil {
		return nil, err
	}

	pos := make(map[string]int, len(m.Columns))
	for i, c := range m.Columns {
		pos[c] = i
	}

	out := &Matrix{
		Columns: append([]string(nil), schema.Columns...),
		Data:    make([][]float64, t.Len()),
	}
	for i := 0; i < t.Len(); i++ {
		row := make([]float64, len(schema.Columns))
		for j, col := range schema.Columns {
			if src, ok := pos[col]; ok {
				row[j] = m.Data[i][src]
			}
		}
		out.Data[i] = row
	}
	return out, nil
}

// encode produces the natural matrix for a table: configured numeric columns
// that are present, then one-hot blocks for configured categorical columns
// that are present, category values sorted for determinism.
func (e *Encoder) encode(t *RawTable) (*Matrix, error) {
	if t == nil {
		return nil, fmt.Errorf("encode: nil table")
	}

	var columns []string
	var fill []func(rowIdx int) float64

	for _, name := range e.NumericFeatures {
		values, ok := t.numeric[name]
		if !ok {
			continue // absent configured column: silently skipped
		}
		columns = append(columns, name)
		fill = append(fill, func(i int) float64 {
			if math.IsNaN(values[i]) {
				return 0
			}
			return values[i]
		})
	}

	for _, name := range e.CategoricalFeatures {
		values, ok := t.categorical[name]
		if !ok {
			continue
		}

		seen := make(map[string]struct{})
		for _, v := range values {
			if v.Valid {
				seen[v.Value] = struct{}{}
			}
		}
		cats := make([]string, 0, len(seen))
		for c := range seen {
			cats = append(cats, c)
		}
		sort.Strings(cats)

		for _, cat := range cats {
			columns = append(columns, name+"_"+cat)
			fill = append(fill, func(i int) float64 {
				if values[i].Valid && values[i].Value == cat {
					return 1
				}
				return 0
			})
		}
		// Always present so "missing" survives the schema.
		columns = append(columns, name+MissingSuffix)
		fill = append(fill, func(i int) float64 {
			if !values[i].Valid {
				return 1
			}
			return 0
		})
	}

	m := &Matrix{
		Columns: columns,
		Data:    make([][]float64, t.Len()),
	}
	for i := 0; i < t.Len(); i++ {
		row := make([]float64, len(columns))
		for j := range columns {
			row[j] = fill[j](i)
		}
		m.Data[i] = row
	}
	return m, nil
}
