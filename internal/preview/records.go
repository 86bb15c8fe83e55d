package preview

// Record types describe what the backend accepts for each built-in form.
// Their validate tags mark required fields in the rendered form and check
// submissions.

type PaymentRecord struct {
	Period       string   `json:"period" validate:"required"`
	Amount       *float64 `json:"amount" validate:"required,gt=0"`
	Method       string   `json:"method" validate:"required,oneof=transfer cheque cash"`
	ChequeNumber string   `json:"cheque_number" validate:"required_if=Method cheque"`
	HubID        string   `json:"hub_id" validate:"required"`
	Notes        string   `json:"notes" validate:"max=500"`
}

type BudgetRecord struct {
	Season   string     `json:"season" validate:"required"`
	Period   string     `json:"period" validate:"required"`
	HubID    string     `json:"hub_id" validate:"required"`
	Plan     BudgetPlan `json:"plan"`
	Approved bool       `json:"approved"`
	Notes    string     `json:"notes" validate:"max=500"`
}

type BudgetPlan struct {
	GrainTypeID string  `json:"grain_type_id" validate:"required"`
	Tonnage     float64 `json:"tonnage" validate:"gt=0"`
	PricePerTon float64 `json:"price_per_ton" validate:"gte=0"`
}

type InvoiceRecord struct {
	Number   string          `json:"number"`
	IssuedOn string          `json:"issued_on" validate:"required"`
	DueOn    string          `json:"due_on"`
	Customer InvoiceCustomer `json:"customer"`
	HubID    string          `json:"hub_id"`
	Currency string          `json:"currency" validate:"required,oneof=USD ZMW MWK"`
	Total    float64         `json:"total" validate:"gte=0"`
	Paid     bool            `json:"paid"`
}

type InvoiceCustomer struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"max=20"`
}

type HubRecord struct {
	Name         string     `json:"name" validate:"required"`
	Code         string     `json:"code" validate:"required,max=12"`
	Region       string     `json:"region" validate:"required"`
	CapacityTons *float64   `json:"capacity_tons" validate:"omitempty,gte=0"`
	Manager      HubManager `json:"manager"`
	Active       bool       `json:"active"`
}

type HubManager struct {
	Name  string `json:"name"`
	Phone string `json:"phone" validate:"max=20"`
}

// RecordFactory returns a fresh record for decoding one submission.
type RecordFactory func() any

// DefaultRecords maps the built-in form names to their record types.
func DefaultRecords() map[string]RecordFactory {
	return map[string]RecordFactory{
		"payment": func() any { return &PaymentRecord{} },
		"budget":  func() any { return &BudgetRecord{} },
		"invoice": func() any { return &InvoiceRecord{} },
		"hub":     func() any { return &HubRecord{} },
	}
}
