package core

// CategoryAmount is an expense total for one category.
type CategoryAmount struct {
	Category ExpenseCategory `json:"category"`
	Amount   Money           `json:"amount"`
}
