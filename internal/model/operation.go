package model

import (
	"time"

	"backend/pkg/finance"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationStatus enum constants. There is no CANCELED state for operations;
// a contract that must not proceed is rejected before integration.
const (
	OperationStatusPending    = "PENDING"
	OperationStatusApproved   = "APPROVED"
	OperationStatusRejected   = "REJECTED"
	OperationStatusProcessing = "EM_PROCESSAMENTO"
	OperationStatusIntegrated = "INTEGRATED"
	OperationStatusError      = "ERROR"
)

// OperationType enum constants
const (
	OperationTypeDiscountCheck = "DISCOUNT_CHECK"
	OperationTypeAccountCredit = "ACCOUNT_CREDIT"
	OperationTypeOther         = "OTHER"
)

// Lifecycle log actions
const (
	LogActionCreated    = "CREATED"
	LogActionApproved   = "APPROVED"
	LogActionRejected   = "REJECTED"
	LogActionIntegrated = "INTEGRATED"
	LogActionError      = "ERROR"
)

// ActorSystem is recorded on log entries written by background processing,
// where no caller identity exists.
const ActorSystem = "SYSTEM"

// Capital is the money block of an operation. Total is always recomputed as
// Principal + Expenses before save.
type Capital struct {
	Principal decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"principal"`
	Expenses  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"expenses"`
	Total     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total"`
}

// Rate holds the nominal periodic rate and its annualized compounding
// equivalent. Effective is only filled on explicit request, never on save.
type Rate struct {
	Nominal   decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"nominal"`
	Effective decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"effective"`
}

// Term is the operation's tenor.
type Term struct {
	Days      int        `gorm:"default:0" json:"days"`
	StartDate *time.Time `json:"start_date"`
	DueDate   *time.Time `json:"due_date"`
}

// Interest carries the simple-interest amount and whether it has been derived
// from the current principal/rate/term.
type Interest struct {
	Value    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"value"`
	Computed bool            `gorm:"default:false" json:"computed"`
}

// OperationInsurance is the optional insurance block of an operation.
type OperationInsurance struct {
	Charge  bool            `gorm:"default:false" json:"charge"`
	Insurer string          `gorm:"type:varchar(255)" json:"insurer"`
	Amount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount"`
}

// OperationValidations is the persisted validation snapshot for an operation.
type OperationValidations struct {
	LimitExceeded        bool `gorm:"default:false" json:"limit_exceeded"`
	ClientValid          bool `gorm:"default:false" json:"client_valid"`
	CreditLineSufficient bool `gorm:"default:false" json:"credit_line_sufficient"`
	DocumentsValid       bool `gorm:"default:false" json:"documents_valid"`
}

// Operation is the realized discounted-credit contract produced once an order
// is approved and integrated.
type Operation struct {
	ID           uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Number       string               `gorm:"type:varchar(30);uniqueIndex;not null" json:"number"`
	OrderID      uuid.UUID            `gorm:"type:uuid;not null;index" json:"order_id"`
	ClientID     uuid.UUID            `gorm:"type:uuid;not null;index" json:"client_id"`
	Type         string               `gorm:"type:varchar(30);not null;default:'DISCOUNT_CHECK';index" json:"type"`
	Capital      Capital              `gorm:"embedded;embeddedPrefix:capital_" json:"capital"`
	Rate         Rate                 `gorm:"embedded;embeddedPrefix:rate_" json:"rate"`
	Term         Term                 `gorm:"embedded;embeddedPrefix:term_" json:"term"`
	Interest     Interest             `gorm:"embedded;embeddedPrefix:interest_" json:"interest"`
	Insurance    OperationInsurance   `gorm:"embedded;embeddedPrefix:insurance_" json:"insurance"`
	AffectedLine string               `gorm:"type:varchar(20);not null;default:'ENDORSER'" json:"affected_line"`
	CreditAcct   CreditAccount        `gorm:"embedded;embeddedPrefix:account_" json:"credit_account"`
	Checks       []Check              `gorm:"foreignKey:OperationID" json:"checks,omitempty"`
	Status       string               `gorm:"type:varchar(30);not null;default:'PENDING';index" json:"status"`
	Validations  OperationValidations `gorm:"embedded;embeddedPrefix:validation_" json:"validations"`
	Messages     []string             `gorm:"type:jsonb;serializer:json" json:"messages"`
	IntegratedAt *time.Time           `json:"integrated_at"`
	Actor        string               `gorm:"type:varchar(100)" json:"actor"`
	Log          []OperationLogEntry  `gorm:"foreignKey:OperationID" json:"log,omitempty"`
	CreatedAt    time.Time            `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// OperationLogEntry is one row of the operation's append-only audit trail.
// Entries are never updated or pruned.
type OperationLogEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OperationID uuid.UUID `gorm:"type:uuid;not null;index" json:"operation_id"`
	Action      string    `gorm:"type:varchar(30);not null" json:"action"`
	Actor       string    `gorm:"type:varchar(100);not null" json:"actor"`
	Details     string    `gorm:"type:text" json:"details"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// RecomputeDerived applies the pre-save invariants: capital total, and simple
// interest when days, principal and nominal rate are all present.
func (o *Operation) RecomputeDerived() {
	o.Capital.Total = finance.TotalCapital(o.Capital.Principal, o.Capital.Expenses)

	if o.Term.Days > 0 && o.Capital.Principal.IsPositive() && o.Rate.Nominal.IsPositive() {
		o.Interest.Value = finance.SimpleInterest(o.Capital.Principal, o.Rate.Nominal, o.Term.Days)
		o.Interest.Computed = true
	}
}
