package feature

import (
	"crypto/sha256"
	"strings"

	"github.com/mr-tron/base58"
)

// Schema is the canonical ordered list of encoded column names, fixed at
// training time and read-only for every subsequent prediction. Reindexing
// any encoded matrix onto a Schema guarantees the width and column order
// the classifier was trained on.
type Schema struct {
	Columns []string
}

// NewSchema creates a schema over a copy of the column list.
func NewSchema(columns []string) *Schema {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Schema{Columns: cols}
}

// Fingerprint is a deterministic short identifier for the schema:
// base58(SHA256(col_0|col_1|...)). Two schemas with the same columns in the
// same order always share a fingerprint.
func (s *Schema) Fingerprint() string {
	hash := sha256.Sum256([]byte(strings.Join(s.Columns, "|")))
	return base58.Encode(hash[:])
}

// Equal reports whether both schemas have identical columns in identical order.
func (s *Schema) Equal(other *Schema) bool {
	if other == nil || len(s.Columns) != len(other.Columns) {
		return false
	}
	for i, c := range s.Columns {
		if other.Columns[i] != c {
			return false
		}
	}
	return true
}
