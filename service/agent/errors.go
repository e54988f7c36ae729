package agent

import "fmt"

// BudgetExceededError signals an agent loop that hit its iteration budget
// without producing a final answer. The session fails with this reason; the
// loop is never silently truncated.
type BudgetExceededError struct {
	Agent  string
	Budget int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("agent %v exceeded its iteration budget of %v", e.Agent, e.Budget)
}
