package finance

import "time"

const (
	TypeIncome   = "income"
	TypeExpense  = "expense"
	TypeTransfer = "transfer"
)

// Transaction is one append-only ledger entry. Reference is caller-supplied
// or generated at insert; entries are never updated or deleted.
type Transaction struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Reference   string    `json:"reference"`
	RecordedBy  string    `json:"recordedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// Report summarises the ledger over a period.
type Report struct {
	TotalIncome  float64         `json:"totalIncome"`
	TotalExpense float64         `json:"totalExpense"`
	Net          float64         `json:"net"`
	IncomeByCat  []CategoryTotal `json:"incomeByCategory"`
	ExpenseByCat []CategoryTotal `json:"expenseByCategory"`
	Transactions int             `json:"transactionCount"`
	PeriodStart  *time.Time      `json:"periodStart,omitempty"`
	PeriodEnd    *time.Time      `json:"periodEnd,omitempty"`
}
