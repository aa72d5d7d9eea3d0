package feature

// Matrix is a dense, purely numeric feature matrix with named, ordered
// columns. Row i of Data corresponds to row i of the encoder's input table.
type Matrix struct {
	Columns []string
	Data    [][]float64
}

// Rows returns the row count.
func (m *Matrix) Rows() int { return len(m.Data) }

// Cols returns the column count.
func (m *Matrix) Cols() int { return len(m.Columns) }
