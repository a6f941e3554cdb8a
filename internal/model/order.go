package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus enum constants. EM_PROCESSAMENTO is the transient state between
// the synchronous integration request and the worker's terminal update.
const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "EM_PROCESSAMENTO"
	OrderStatusIntegrated = "INTEGRATED"
	OrderStatusError      = "ERROR"
	OrderStatusCanceled   = "CANCELED"
)

// Sector enum constants
const (
	SectorPersonal   = "PERSONAL"
	SectorCommercial = "COMMERCIAL"
)

// Origin enum constants: how the order entered the system.
const (
	OriginForm        = "FORM"
	OriginDiskette    = "DISKETTE"
	OriginWeb         = "WEB"
	OriginSpreadsheet = "SPREADSHEET"
)

// OrderClientRef is a denormalized snapshot of the client at order creation,
// not a live join.
type OrderClientRef struct {
	Code uint64 `gorm:"not null;index" json:"code"`
	Name string `gorm:"type:varchar(255)" json:"name"`
}

// OrderExpenses splits the expense total into two optional sub-amounts. When
// either sub-amount is set, Total is recomputed as their sum before save.
type OrderExpenses struct {
	Total      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total"`
	Operation1 decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"operation1"`
	Operation2 decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"operation2"`
}

// OrderInsurance carries the optional insurance terms for an order.
type OrderInsurance struct {
	Charge  bool   `gorm:"default:false" json:"charge"`
	Insurer string `gorm:"type:varchar(255)" json:"insurer"`
}

// CreditAccount is the account credited when an operation settles.
type CreditAccount struct {
	Number string `gorm:"type:varchar(30)" json:"number"`
	Bank   string `gorm:"type:varchar(10)" json:"bank"`
	Agency string `gorm:"type:varchar(10)" json:"agency"`
}

// OperationRef is the back-reference to the operation spawned by integration.
// Populated only after the worker commits the terminal transition.
type OperationRef struct {
	Number       string     `gorm:"type:varchar(30)" json:"number"`
	IntegratedAt *time.Time `json:"integrated_at"`
}

// Order is a request for discounted credit, the top-level workflow unit.
type Order struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Number       uint64          `gorm:"uniqueIndex;not null" json:"number"`
	Client       OrderClientRef  `gorm:"embedded;embeddedPrefix:client_" json:"client"`
	Branch       Branch          `gorm:"embedded;embeddedPrefix:branch_" json:"branch"`
	Rate         decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"rate"` // nominal, percentage 0-100
	Sector       string          `gorm:"type:varchar(20);not null;default:'PERSONAL'" json:"sector"`
	Expenses     OrderExpenses   `gorm:"embedded;embeddedPrefix:expenses_" json:"expenses"`
	Insurance    OrderInsurance  `gorm:"embedded;embeddedPrefix:insurance_" json:"insurance"`
	AffectedLine string          `gorm:"type:varchar(20);not null;default:'ENDORSER'" json:"affected_line"` // DRAWER, ENDORSER
	CreditAcct   CreditAccount   `gorm:"embedded;embeddedPrefix:account_" json:"credit_account"`
	Status       string          `gorm:"type:varchar(30);not null;default:'PENDING';index" json:"status"`
	Origin       string          `gorm:"type:varchar(20);not null;default:'FORM';index" json:"origin"`
	Operation    OperationRef    `gorm:"embedded;embeddedPrefix:operation_" json:"operation"`
	Messages     []string        `gorm:"type:jsonb;serializer:json" json:"messages"`
	Actor        string          `gorm:"type:varchar(100)" json:"actor"`
	IntegratedAt *time.Time      `json:"integrated_at"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// RecomputeExpenses applies the pre-save invariant: the total is the sum of
// the sub-amounts whenever either one is present.
func (o *Order) RecomputeExpenses() {
	if !o.Expenses.Operation1.IsZero() || !o.Expenses.Operation2.IsZero() {
		o.Expenses.Total = o.Expenses.Operation1.Add(o.Expenses.Operation2)
	}
}
