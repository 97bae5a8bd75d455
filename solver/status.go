package solver

import "fmt"

// Status is the outcome category of a solve.
type Status int

const (
	// StatusSuccess means the solver converged to a point satisfying the constraints.
	StatusSuccess Status = iota
	// StatusInfeasible means the final iterate violates the constraints beyond tolerance.
	StatusInfeasible
	// StatusTimeBudgetExceeded means the wall-clock budget expired; X holds the best iterate.
	StatusTimeBudgetExceeded
	// StatusMaxEvaluations means the evaluation limit was hit before convergence.
	StatusMaxEvaluations
	// StatusNumericalFailure means the solver stopped on roundoff or non-finite values.
	StatusNumericalFailure
	// StatusCanceled means the context was canceled during the solve.
	StatusCanceled
	// StatusFailure is any other solver failure.
	StatusFailure
)

// Success reports whether s is StatusSuccess.
func (s Status) Success() bool {
	return s == StatusSuccess
}

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusInfeasible:
		return "infeasible"
	case StatusTimeBudgetExceeded:
		return "time_budget_exceeded"
	case StatusMaxEvaluations:
		return "max_evaluations"
	case StatusNumericalFailure:
		return "numerical_failure"
	case StatusCanceled:
		return "canceled"
	case StatusFailure:
		return "failure"
	}
	return fmt.Sprintf("status(%d)", int(s))
}
