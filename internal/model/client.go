package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PersonType enum constants
const (
	PersonTypeIndividual   = "INDIVIDUAL"
	PersonTypeOrganization = "ORGANIZATION"
)

// ClientStatus enum constants
const (
	ClientStatusActive   = "ACTIVE"
	ClientStatusBlocked  = "BLOCKED"
	ClientStatusInactive = "INACTIVE"
)

// Credit line roles, the two exposures a client can carry on an order or
// operation.
const (
	LineDrawer   = "DRAWER"
	LineEndorser = "ENDORSER"
)

// CreditLine holds the authorized ceiling and current utilization for one role.
// Utilized is not capped at write time; the capacity check reports negative
// availability instead.
type CreditLine struct {
	Ceiling  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"ceiling"`
	Utilized decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"utilized"`
}

// Branch identifies the branch office a client is registered under.
type Branch struct {
	Code string `gorm:"type:varchar(20)" json:"code"`
	Name string `gorm:"type:varchar(255)" json:"name"`
}

// Activity is the client's registered economic activity.
type Activity struct {
	Code        int64  `gorm:"default:0" json:"code"`
	Description string `gorm:"type:varchar(255)" json:"description"`
}

// BankAccount is the client's settlement account.
type BankAccount struct {
	Number string `gorm:"type:varchar(30)" json:"number"`
	Bank   string `gorm:"type:varchar(10)" json:"bank"`
	Agency string `gorm:"type:varchar(10)" json:"agency"`
}

// ClientInsurance marks whether credit operations for this client are insured.
type ClientInsurance struct {
	Enabled bool   `gorm:"default:false" json:"enabled"`
	Insurer string `gorm:"type:varchar(255)" json:"insurer"`
}

// Client represents a registered credit customer. Clients are never deleted;
// deactivation moves them to INACTIVE.
type Client struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code         uint64          `gorm:"uniqueIndex;not null" json:"code"`
	Name         string          `gorm:"type:varchar(255);not null" json:"name"`
	PersonType   string          `gorm:"type:varchar(20);not null" json:"person_type"` // INDIVIDUAL, ORGANIZATION
	Document     string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"document"`
	Activity     Activity        `gorm:"embedded;embeddedPrefix:activity_" json:"activity"`
	Branch       Branch          `gorm:"embedded;embeddedPrefix:branch_" json:"branch"`
	DrawerLine   CreditLine      `gorm:"embedded;embeddedPrefix:drawer_" json:"drawer_line"`
	EndorserLine CreditLine      `gorm:"embedded;embeddedPrefix:endorser_" json:"endorser_line"`
	BankAccount  BankAccount     `gorm:"embedded;embeddedPrefix:account_" json:"bank_account"`
	Insurance    ClientInsurance `gorm:"embedded;embeddedPrefix:insurance_" json:"insurance"`
	Restrictions []string        `gorm:"type:jsonb;serializer:json" json:"restrictions"`
	Status       string          `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreditLineFor returns the credit line backing the given role.
func (c *Client) CreditLineFor(role string) CreditLine {
	if role == LineDrawer {
		return c.DrawerLine
	}
	return c.EndorserLine
}
