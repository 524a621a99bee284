package resources

import "time"

const (
	StatusAvailable  = "Available"
	StatusLowStock   = "Low Stock"
	StatusOutOfStock = "Out of Stock"

	AllocationActive   = "active"
	AllocationReturned = "returned"
	AllocationDamaged  = "damaged"
)

type Resource struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status"`
	UnitCost  *float64  `json:"unitCost,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Allocation struct {
	ID           string     `json:"id"`
	ResourceID   string     `json:"resourceId"`
	ResourceName string     `json:"resourceName,omitempty"`
	EmployeeID   string     `json:"employeeId"`
	EmployeeName string     `json:"employeeName,omitempty"`
	Quantity     int        `json:"quantity"`
	Status       string     `json:"status"`
	AllocatedAt  time.Time  `json:"allocatedAt"`
	ReturnedAt   *time.Time `json:"returnedAt,omitempty"`
}

// InventoryLine is one row of the stock report: current quantity plus how
// much is out on active allocations.
type InventoryLine struct {
	Resource
	Allocated int `json:"allocated"`
}

// InventoryReport summarises the stock position. TotalValue covers only
// resources with a recorded unit cost.
type InventoryReport struct {
	TotalResources int             `json:"totalResources"`
	LowStock       int             `json:"lowStock"`
	OutOfStock     int             `json:"outOfStock"`
	TotalValue     float64         `json:"totalValue"`
	Lines          []InventoryLine `json:"lines"`
}
