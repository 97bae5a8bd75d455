package mpc

// Indexes locates each sub-sequence inside the flat decision vector for a horizon of N steps.
//
//	[x_0..x_{N-1} | y | psi | cte | epsi | delta_0..delta_{N-2} | v_0..v_{N-2}]
//
// The constraint vector reuses the state offsets: row X(t) holds the x dynamics residual at step t.
type Indexes struct {
	N          int
	XStart     int
	YStart     int
	PsiStart   int
	CTEStart   int
	EPsiStart  int
	DeltaStart int
	VStart     int
}

// NewIndexes computes the layout for horizon n.
func NewIndexes(n int) Indexes {
	idx := Indexes{N: n, XStart: 0}
	idx.YStart = idx.XStart + n
	idx.PsiStart = idx.YStart + n
	idx.CTEStart = idx.PsiStart + n
	idx.EPsiStart = idx.CTEStart + n
	idx.DeltaStart = idx.EPsiStart + n
	idx.VStart = idx.DeltaStart + n - 1
	return idx
}

// X is the offset of x_t.
func (idx Indexes) X(t int) int { return idx.XStart + t }

// Y is the offset of y_t.
func (idx Indexes) Y(t int) int { return idx.YStart + t }

// Psi is the offset of psi_t.
func (idx Indexes) Psi(t int) int { return idx.PsiStart + t }

// CTE is the offset of cte_t.
func (idx Indexes) CTE(t int) int { return idx.CTEStart + t }

// EPsi is the offset of epsi_t.
func (idx Indexes) EPsi(t int) int { return idx.EPsiStart + t }

// Delta is the offset of the steering command delta_t, t < N-1.
func (idx Indexes) Delta(t int) int { return idx.DeltaStart + t }

// V is the offset of the speed command v_t, t < N-1.
func (idx Indexes) V(t int) int { return idx.VStart + t }

// NumStates is the number of state steps, N.
func (idx Indexes) NumStates() int { return idx.N }

// NumActuations is the number of actuator steps, N-1.
func (idx Indexes) NumActuations() int { return idx.N - 1 }

// NumVars is the decision vector length, 7N-2.
func (idx Indexes) NumVars() int { return idx.V(idx.NumActuations()) }

// NumConstraints is the constraint vector length, 5N.
func (idx Indexes) NumConstraints() int { return idx.EPsi(idx.NumStates()) }
