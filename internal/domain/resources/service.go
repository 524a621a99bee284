package resources

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

type AddInput struct {
	Name     string
	Category string
	Quantity int
	UnitCost *float64
	Notes    string
}

// Add registers a resource or tops up an existing one with the same name and
// category. Status is recomputed from the resulting quantity either way.
func (s *Service) Add(ctx context.Context, input AddInput) (Resource, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Resource{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var res Resource
	var existingQty int
	err = tx.QueryRow(ctx, `
    SELECT id, quantity FROM resources
    WHERE name = $1 AND category = $2
    FOR UPDATE
  `, input.Name, input.Category).Scan(&res.ID, &existingQty)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		status := statusForQuantity(input.Quantity)
		err = tx.QueryRow(ctx, `
      INSERT INTO resources (name, category, quantity, status, unit_cost, notes)
      VALUES ($1, $2, $3, $4, $5, $6)
      RETURNING id, name, category, quantity, status, unit_cost, notes, created_at, updated_at
    `, input.Name, input.Category, input.Quantity, status, input.UnitCost, input.Notes).
			Scan(&res.ID, &res.Name, &res.Category, &res.Quantity, &res.Status,
				&res.UnitCost, &res.Notes, &res.CreatedAt, &res.UpdatedAt)
		if err != nil {
			return Resource{}, err
		}
	case err != nil:
		return Resource{}, err
	default:
		newQty := existingQty + input.Quantity
		err = tx.QueryRow(ctx, `
      UPDATE resources
      SET quantity = $1, status = $2,
          unit_cost = COALESCE($3, unit_cost),
          notes = COALESCE(NULLIF($4, ''), notes),
          updated_at = now()
      WHERE id = $5
      RETURNING id, name, category, quantity, status, unit_cost, notes, created_at, updated_at
    `, newQty, statusForQuantity(newQty), input.UnitCost, input.Notes, res.ID).
			Scan(&res.ID, &res.Name, &res.Category, &res.Quantity, &res.Status,
				&res.UnitCost, &res.Notes, &res.CreatedAt, &res.UpdatedAt)
		if err != nil {
			return Resource{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Resource{}, err
	}
	return res, nil
}

// Allocate hands quantity units of a resource to an employee. The stock row
// is locked for the duration so two allocations cannot both draw from the
// same units.
func (s *Service) Allocate(ctx context.Context, resourceID, employeeID string, quantity int) (Allocation, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Allocation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var available int
	var name string
	err = tx.QueryRow(ctx, `
    SELECT quantity, name FROM resources WHERE id = $1 FOR UPDATE
  `, resourceID).Scan(&available, &name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Allocation{}, ErrNotFound
	}
	if err != nil {
		return Allocation{}, err
	}
	if available < quantity {
		return Allocation{}, &InsufficientStockError{Requested: quantity, Available: available}
	}

	remaining := available - quantity
	if _, err := tx.Exec(ctx, `
    UPDATE resources SET quantity = $1, status = $2, updated_at = now() WHERE id = $3
  `, remaining, statusForQuantity(remaining), resourceID); err != nil {
		return Allocation{}, err
	}

	alloc := Allocation{
		ResourceID:   resourceID,
		ResourceName: name,
		EmployeeID:   employeeID,
		Quantity:     quantity,
		Status:       AllocationActive,
	}
	err = tx.QueryRow(ctx, `
    INSERT INTO resource_allocations (resource_id, employee_id, quantity, status)
    VALUES ($1, $2, $3, $4)
    RETURNING id, allocated_at
  `, resourceID, employeeID, quantity, AllocationActive).Scan(&alloc.ID, &alloc.AllocatedAt)
	if err != nil {
		return Allocation{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Allocation{}, err
	}
	return alloc, nil
}

// Return closes an active allocation. Intact units go back on the shelf;
// damaged ones are written off without crediting stock.
func (s *Service) Return(ctx context.Context, allocationID string, damaged bool) (Allocation, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Allocation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var alloc Allocation
	err = tx.QueryRow(ctx, `
    SELECT id, resource_id, employee_id, quantity, status, allocated_at
    FROM resource_allocations
    WHERE id = $1
    FOR UPDATE
  `, allocationID).Scan(&alloc.ID, &alloc.ResourceID, &alloc.EmployeeID,
		&alloc.Quantity, &alloc.Status, &alloc.AllocatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Allocation{}, ErrNotFound
	}
	if err != nil {
		return Allocation{}, err
	}
	if alloc.Status != AllocationActive {
		return Allocation{}, ErrNotAllocated
	}

	if !damaged {
		var available int
		err = tx.QueryRow(ctx, `
      SELECT quantity FROM resources WHERE id = $1 FOR UPDATE
    `, alloc.ResourceID).Scan(&available)
		if err != nil {
			return Allocation{}, err
		}

		restored := available + alloc.Quantity
		if _, err := tx.Exec(ctx, `
      UPDATE resources SET quantity = $1, status = $2, updated_at = now() WHERE id = $3
    `, restored, statusAfterReturn(restored), alloc.ResourceID); err != nil {
			return Allocation{}, err
		}
	}

	closedStatus := AllocationReturned
	if damaged {
		closedStatus = AllocationDamaged
	}
	err = tx.QueryRow(ctx, `
    UPDATE resource_allocations
    SET status = $1, returned_at = now()
    WHERE id = $2
    RETURNING returned_at
  `, closedStatus, allocationID).Scan(&alloc.ReturnedAt)
	if err != nil {
		return Allocation{}, err
	}
	alloc.Status = closedStatus

	if err := tx.Commit(ctx); err != nil {
		return Allocation{}, err
	}
	return alloc, nil
}

func (s *Service) List(ctx context.Context) ([]Resource, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, category, quantity, status, unit_cost, notes, created_at, updated_at
    FROM resources
    ORDER BY category, name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []Resource
	for rows.Next() {
		var res Resource
		if err := rows.Scan(&res.ID, &res.Name, &res.Category, &res.Quantity,
			&res.Status, &res.UnitCost, &res.Notes, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	return resources, nil
}

// Inventory reports every resource alongside the units currently out on
// active allocations, with stock-position totals.
func (s *Service) Inventory(ctx context.Context) (InventoryReport, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.id, r.name, r.category, r.quantity, r.status, r.unit_cost, r.notes, r.created_at, r.updated_at,
           COALESCE(SUM(a.quantity) FILTER (WHERE a.status = $1), 0)
    FROM resources r
    LEFT JOIN resource_allocations a ON a.resource_id = r.id
    GROUP BY r.id
    ORDER BY r.category, r.name
  `, AllocationActive)
	if err != nil {
		return InventoryReport{}, err
	}
	defer rows.Close()

	var report InventoryReport
	for rows.Next() {
		var line InventoryLine
		if err := rows.Scan(&line.ID, &line.Name, &line.Category, &line.Quantity,
			&line.Status, &line.UnitCost, &line.Notes, &line.CreatedAt, &line.UpdatedAt,
			&line.Allocated); err != nil {
			return InventoryReport{}, err
		}
		report.TotalResources++
		switch line.Status {
		case StatusLowStock:
			report.LowStock++
		case StatusOutOfStock:
			report.OutOfStock++
		}
		if line.UnitCost != nil {
			report.TotalValue += float64(line.Quantity) * *line.UnitCost
		}
		report.Lines = append(report.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return InventoryReport{}, err
	}
	return report, nil
}

// LowStockCount counts resources below the availability threshold, for the
// dashboard summary.
func (s *Service) LowStockCount(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM resources WHERE status <> $1", StatusAvailable).Scan(&count)
	return count, err
}

func (s *Service) ListAllocations(ctx context.Context) ([]Allocation, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT a.id, a.resource_id, r.name, a.employee_id, u.first_name || ' ' || u.last_name,
           a.quantity, a.status, a.allocated_at, a.returned_at
    FROM resource_allocations a
    JOIN resources r ON r.id = a.resource_id
    JOIN employees e ON e.id = a.employee_id
    JOIN users u ON u.id = e.user_id
    ORDER BY a.allocated_at DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []Allocation
	for rows.Next() {
		var alloc Allocation
		if err := rows.Scan(&alloc.ID, &alloc.ResourceID, &alloc.ResourceName,
			&alloc.EmployeeID, &alloc.EmployeeName, &alloc.Quantity, &alloc.Status,
			&alloc.AllocatedAt, &alloc.ReturnedAt); err != nil {
			return nil, err
		}
		allocations = append(allocations, alloc)
	}
	return allocations, nil
}
