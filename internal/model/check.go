package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckStatus enum constants. INTEGRATED is terminal and only ever set by
// operation integration; once there, every edit and transition is refused.
const (
	CheckStatusPending    = "PENDING"
	CheckStatusApproved   = "APPROVED"
	CheckStatusRejected   = "REJECTED"
	CheckStatusIntegrated = "INTEGRATED"
	CheckStatusCanceled   = "CANCELED"
)

// Party is one of the two persons involved in a check (drawer or endorser).
type Party struct {
	Name       string `gorm:"type:varchar(255)" json:"name"`
	Document   string `gorm:"type:varchar(20);index" json:"document"`
	PersonType string `gorm:"type:varchar(20)" json:"person_type"` // INDIVIDUAL, ORGANIZATION
}

// Empty reports whether the party slot was left unfilled (the endorser is
// optional on a check).
func (p Party) Empty() bool {
	return p.Name == "" && p.Document == ""
}

// CheckValidations is the validation snapshot persisted on the check.
// DocumentValid is recomputed on every save from the drawer's document and
// person type; the remaining flags are refreshed by the validate operation.
type CheckValidations struct {
	DocumentValid bool `gorm:"default:false" json:"document_valid"`
	DueDateValid  bool `gorm:"default:false" json:"due_date_valid"`
	AmountValid   bool `gorm:"default:false" json:"amount_valid"`
	DrawerValid   bool `gorm:"default:false" json:"drawer_valid"`
	EndorserValid bool `gorm:"default:false" json:"endorser_valid"`
}

// Check is a bank-drawn instrument attached to an order as discounting
// collateral. The number is unique per bank.
type Check struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Number      string           `gorm:"type:varchar(30);not null;uniqueIndex:idx_checks_number_bank" json:"number"`
	BankCode    string           `gorm:"type:varchar(10);not null;uniqueIndex:idx_checks_number_bank" json:"bank_code"`
	BankName    string           `gorm:"type:varchar(255)" json:"bank_name"`
	Agency      string           `gorm:"type:varchar(10)" json:"agency"`
	Account     string           `gorm:"type:varchar(30)" json:"account"`
	Amount      decimal.Decimal  `gorm:"type:decimal(18,4);not null" json:"amount"`
	IssueDate   *time.Time       `json:"issue_date"`
	DueDate     *time.Time       `json:"due_date"`
	Drawer      Party            `gorm:"embedded;embeddedPrefix:drawer_" json:"drawer"`
	Endorser    Party            `gorm:"embedded;embeddedPrefix:endorser_" json:"endorser"`
	OrderID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"order_id"`
	ClientID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"client_id"`
	OperationID *uuid.UUID       `gorm:"type:uuid;index" json:"operation_id"` // set when an operation integrates this check
	Status      string           `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Validations CheckValidations `gorm:"embedded;embeddedPrefix:validation_" json:"validations"`
	Messages    []string         `gorm:"type:jsonb;serializer:json" json:"messages"`
	ProcessedAt *time.Time       `json:"processed_at"`
	Actor       string           `gorm:"type:varchar(100)" json:"actor"`
	CreatedAt   time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
