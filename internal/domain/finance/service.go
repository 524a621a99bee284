package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

type RecordInput struct {
	Type        string
	Amount      float64
	Category    string
	Description string
	Date        time.Time
	Reference   string
}

// Record appends a ledger entry. A missing reference gets a generated one so
// every entry is individually traceable.
func (s *Service) Record(ctx context.Context, recordedBy string, input RecordInput) (Transaction, error) {
	tx := Transaction{
		Type:        input.Type,
		Amount:      input.Amount,
		Category:    input.Category,
		Description: input.Description,
		Date:        input.Date,
		Reference:   input.Reference,
		RecordedBy:  recordedBy,
	}
	if tx.Reference == "" {
		tx.Reference = "TXN-" + uuid.NewString()[:8]
	}
	if tx.Date.IsZero() {
		tx.Date = time.Now().UTC()
	}

	err := s.DB.QueryRow(ctx, `
    INSERT INTO financial_transactions (transaction_type, amount, category, description, transaction_date, reference, recorded_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id, created_at
  `, tx.Type, tx.Amount, tx.Category, tx.Description, tx.Date, tx.Reference, recordedBy).
		Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

func (s *Service) List(ctx context.Context, txType string, from, to *time.Time) ([]Transaction, error) {
	query := `
    SELECT id, transaction_type, amount, category, COALESCE(description, ''),
           transaction_date, reference, recorded_by::text, created_at
    FROM financial_transactions
    WHERE 1=1
  `
	var args []any
	if txType != "" {
		args = append(args, txType)
		query += fmt.Sprintf(" AND transaction_type = $%d", len(args))
	}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND transaction_date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND transaction_date <= $%d", len(args))
	}
	query += " ORDER BY transaction_date DESC, created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(&tx.ID, &tx.Type, &tx.Amount, &tx.Category, &tx.Description,
			&tx.Date, &tx.Reference, &tx.RecordedBy, &tx.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, nil
}

// BuildReport totals income against expense over the period, with
// per-category rollups for each side.
func (s *Service) BuildReport(ctx context.Context, from, to *time.Time) (Report, error) {
	query := `
    SELECT transaction_type, category, SUM(amount), COUNT(1)
    FROM financial_transactions
    WHERE 1=1
  `
	var args []any
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND transaction_date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND transaction_date <= $%d", len(args))
	}
	query += " GROUP BY transaction_type, category ORDER BY transaction_type, category"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return Report{}, err
	}
	defer rows.Close()

	report := Report{PeriodStart: from, PeriodEnd: to}
	for rows.Next() {
		var txType, category string
		var total float64
		var count int
		if err := rows.Scan(&txType, &category, &total, &count); err != nil {
			return Report{}, err
		}
		report.Transactions += count
		switch txType {
		case TypeIncome:
			report.TotalIncome += total
			report.IncomeByCat = append(report.IncomeByCat, CategoryTotal{Category: category, Total: total})
		case TypeExpense:
			report.TotalExpense += total
			report.ExpenseByCat = append(report.ExpenseByCat, CategoryTotal{Category: category, Total: total})
		}
	}
	if err := rows.Err(); err != nil {
		return Report{}, err
	}
	report.Net = report.TotalIncome - report.TotalExpense
	return report, nil
}
