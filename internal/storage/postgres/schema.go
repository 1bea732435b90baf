package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/payroll/internal/models"
)

type payGroupRow struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Category  string    `gorm:"type:varchar(16);not null;check:ck_pay_groups_category,category IN ('PAYROLL', 'HSA')"`
	Name      string    `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (payGroupRow) TableName() string { return "pay_groups" }

type approverRow struct {
	PayGroupID uuid.UUID    `gorm:"type:uuid;primaryKey"`
	ApproverID string       `gorm:"type:text;primaryKey"`
	PayGroup   *payGroupRow `gorm:"foreignKey:PayGroupID;constraint:OnDelete:CASCADE"`
}

func (approverRow) TableName() string { return "pay_group_approvers" }

type disbursementRow struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey"`
	PayGroupID  uuid.UUID    `gorm:"type:uuid;not null;index"`
	PayGroup    *payGroupRow `gorm:"foreignKey:PayGroupID;constraint:OnDelete:CASCADE"`
	ScheduledAt time.Time    `gorm:"not null"`
	CreatedAt   time.Time    `gorm:"not null"`
	UpdatedAt   time.Time    `gorm:"not null"`
	UpdatedBy   string       `gorm:"type:text;not null"`
	State       string       `gorm:"type:varchar(16);not null;check:ck_disbursements_state,state IN ('PENDING', 'REJECTED', 'APPROVED', 'SCHEDULED')"`
}

func (disbursementRow) TableName() string { return "disbursements" }

// payEntryRow carries the single-parent rule as a table check constraint so
// rows written outside the factories are rejected too. Amount is unbounded
// numeric so any scale the factories accept reads back unchanged.
type payEntryRow struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Discriminator  int              `gorm:"not null;check:ck_pay_entries_single_parent,(discriminator = 0 AND pay_group_id IS NOT NULL AND disbursement_id IS NULL) OR (discriminator = 1 AND pay_group_id IS NULL AND disbursement_id IS NOT NULL)"`
	PayGroupID     *uuid.UUID       `gorm:"type:uuid;index"`
	PayGroup       *payGroupRow     `gorm:"foreignKey:PayGroupID;constraint:OnDelete:CASCADE"`
	DisbursementID *uuid.UUID       `gorm:"type:uuid;index"`
	Disbursement   *disbursementRow `gorm:"foreignKey:DisbursementID;constraint:OnDelete:CASCADE"`
	EmployeeID     string           `gorm:"type:text;not null"`
	AccountNumber  string           `gorm:"type:text;not null"`
	RoutingNumber  string           `gorm:"type:char(9);not null"`
	Amount         decimal.Decimal  `gorm:"type:numeric;not null"`
}

func (payEntryRow) TableName() string { return "pay_entries" }

type businessEmployeeRow struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name  string    `gorm:"type:varchar(200);not null"`
	Email string    `gorm:"type:varchar(320);not null;uniqueIndex:ux_business_employees_email"`
}

func (businessEmployeeRow) TableName() string { return "business_employees" }

type bankAccountRow struct {
	BusinessEmployeeID uuid.UUID            `gorm:"type:uuid;primaryKey"`
	BusinessEmployee   *businessEmployeeRow `gorm:"foreignKey:BusinessEmployeeID;constraint:OnDelete:CASCADE"`
	Position           int                  `gorm:"primaryKey"`
	AccountID          string               `gorm:"type:text;not null"`
	RoutingNumber      string               `gorm:"type:char(9);not null;check:ck_bank_accounts_routing,length(routing_number) = 9"`
	PayPercentage      decimal.Decimal      `gorm:"type:numeric;not null"`
}

func (bankAccountRow) TableName() string { return "bank_accounts" }

// tables lists the models in dependency order for AutoMigrate.
var tables = []any{
	&payGroupRow{},
	&approverRow{},
	&disbursementRow{},
	&payEntryRow{},
	&businessEmployeeRow{},
	&bankAccountRow{},
}

func toPayGroupRow(pg *models.PayGroup) payGroupRow {
	return payGroupRow{ID: pg.ID, Category: string(pg.Category), Name: pg.Name, CreatedAt: pg.CreatedAt}
}

func (r payGroupRow) model(approvers []string) *models.PayGroup {
	return &models.PayGroup{
		ID:          r.ID,
		Category:    models.PayCategory(r.Category),
		Name:        r.Name,
		ApproverIDs: approvers,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func toDisbursementRow(d *models.Disbursement) disbursementRow {
	return disbursementRow{
		ID:          d.ID,
		PayGroupID:  d.PayGroupID,
		ScheduledAt: d.ScheduledAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		UpdatedBy:   d.UpdatedBy,
		State:       string(d.State),
	}
}

func (r disbursementRow) model() *models.Disbursement {
	return &models.Disbursement{
		ID:          r.ID,
		PayGroupID:  r.PayGroupID,
		ScheduledAt: r.ScheduledAt.UTC(),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
		UpdatedBy:   r.UpdatedBy,
		State:       models.DisbursementState(r.State),
	}
}

func toPayEntryRow(rec models.PayEntryRecord) payEntryRow {
	return payEntryRow{
		ID:             rec.ID,
		Discriminator:  int(rec.Discriminator),
		PayGroupID:     rec.PayGroupID,
		DisbursementID: rec.DisbursementID,
		EmployeeID:     rec.EmployeeID,
		AccountNumber:  rec.AccountNumber,
		RoutingNumber:  rec.RoutingNumber,
		Amount:         rec.Amount,
	}
}

func (r payEntryRow) record() models.PayEntryRecord {
	return models.PayEntryRecord{
		ID:             r.ID,
		Discriminator:  models.ParentKind(r.Discriminator),
		PayGroupID:     r.PayGroupID,
		DisbursementID: r.DisbursementID,
		EmployeeID:     r.EmployeeID,
		AccountNumber:  r.AccountNumber,
		RoutingNumber:  r.RoutingNumber,
		Amount:         r.Amount,
	}
}
