package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ParentKind is the stored discriminator of a PayEntry: 0 for a PayGroup
// parent, 1 for a Disbursement parent.
type ParentKind int

const (
	ParentPayGroup     ParentKind = 0
	ParentDisbursement ParentKind = 1
)

// ParseParentKind accepts "pay_group"/"paygroup" and "disbursement" in any case.
func ParseParentKind(s string) (ParentKind, bool) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "paygroup":
		return ParentPayGroup, true
	case "disbursement":
		return ParentDisbursement, true
	}
	return 0, false
}

func (k ParentKind) String() string {
	switch k {
	case ParentPayGroup:
		return "pay_group"
	case ParentDisbursement:
		return "disbursement"
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Owner identifies the parent of a PayEntry. It is sealed: the only
// implementations are OwnedByPayGroup and OwnedByDisbursement.
type Owner interface {
	Kind() ParentKind
	ParentID() uuid.UUID
	isOwner()
}

// OwnedByPayGroup is the owner of an entry whose parent is a PayGroup.
type OwnedByPayGroup struct {
	PayGroupID uuid.UUID
}

func (o OwnedByPayGroup) Kind() ParentKind    { return ParentPayGroup }
func (o OwnedByPayGroup) ParentID() uuid.UUID { return o.PayGroupID }
func (OwnedByPayGroup) isOwner()              {}

// OwnedByDisbursement is the owner of an entry whose parent is a Disbursement.
type OwnedByDisbursement struct {
	DisbursementID uuid.UUID
}

func (o OwnedByDisbursement) Kind() ParentKind    { return ParentDisbursement }
func (o OwnedByDisbursement) ParentID() uuid.UUID { return o.DisbursementID }
func (OwnedByDisbursement) isOwner()              {}

// AmountPolicy decides which PayEntry amounts the factories accept.
type AmountPolicy string

const (
	// AmountAny accepts any amount, including zero and negative reversals.
	AmountAny AmountPolicy = "any"
	// AmountNonZero rejects zero amounts.
	AmountNonZero AmountPolicy = "non-zero"
	// AmountPositive only accepts amounts greater than zero.
	AmountPositive AmountPolicy = "positive"
)

// ParseAmountPolicy converts a configuration value into an AmountPolicy.
// The empty string selects AmountAny.
func ParseAmountPolicy(s string) (AmountPolicy, error) {
	switch p := AmountPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return AmountAny, nil
	case AmountAny, AmountNonZero, AmountPositive:
		return p, nil
	default:
		return "", fmt.Errorf("unknown amount policy %q", s)
	}
}

func (p AmountPolicy) check(amount decimal.Decimal) string {
	switch p {
	case AmountNonZero:
		if amount.IsZero() {
			return "must not be zero"
		}
	case AmountPositive:
		if !amount.IsPositive() {
			return "must be greater than zero"
		}
	}
	return ""
}

var routingNumberPattern = regexp.MustCompile(`^[0-9]{9}$`)

// IsRoutingNumber reports whether s is exactly nine decimal digits.
func IsRoutingNumber(s string) bool {
	return routingNumberPattern.MatchString(s)
}

// PayEntry is a single payment line. Its owner is fixed at construction.
type PayEntry struct {
	ID            uuid.UUID
	EmployeeID    string
	AccountNumber string
	RoutingNumber string
	Amount        decimal.Decimal

	owner Owner

	// Hydrated parent, attached by the storage layer on load.
	payGroup     *PayGroup
	disbursement *Disbursement
}

// NewPayEntryForPayGroup creates an entry owned by the PayGroup payGroupID.
func NewPayEntryForPayGroup(payGroupID uuid.UUID, employeeID, accountNumber, routingNumber string, amount decimal.Decimal, policy AmountPolicy) (*PayEntry, error) {
	if payGroupID == uuid.Nil {
		return nil, ValidationErrors{{Field: "payGroupId", Message: "is required"}}
	}
	return newPayEntry(OwnedByPayGroup{PayGroupID: payGroupID}, employeeID, accountNumber, routingNumber, amount, policy)
}

// NewPayEntryForDisbursement creates an entry owned by the Disbursement disbursementID.
func NewPayEntryForDisbursement(disbursementID uuid.UUID, employeeID, accountNumber, routingNumber string, amount decimal.Decimal, policy AmountPolicy) (*PayEntry, error) {
	if disbursementID == uuid.Nil {
		return nil, ValidationErrors{{Field: "disbursementId", Message: "is required"}}
	}
	return newPayEntry(OwnedByDisbursement{DisbursementID: disbursementID}, employeeID, accountNumber, routingNumber, amount, policy)
}

func newPayEntry(owner Owner, employeeID, accountNumber, routingNumber string, amount decimal.Decimal, policy AmountPolicy) (*PayEntry, error) {
	var errs ValidationErrors
	if strings.TrimSpace(employeeID) == "" {
		errs.add("employeeId", "is required")
	}
	if strings.TrimSpace(accountNumber) == "" {
		errs.add("accountNumber", "is required")
	}
	if routingNumber == "" {
		errs.add("routingNumber", "is required")
	} else if !IsRoutingNumber(routingNumber) {
		errs.add("routingNumber", "must be exactly 9 digits")
	}
	if msg := policy.check(amount); msg != "" {
		errs.add("amount", msg)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	return &PayEntry{
		ID:            uuid.New(),
		EmployeeID:    employeeID,
		AccountNumber: accountNumber,
		RoutingNumber: routingNumber,
		Amount:        amount,
		owner:         owner,
	}, nil
}

// Owner returns the entry's owner.
func (e *PayEntry) Owner() Owner {
	return e.owner
}

// Discriminator returns the kind of parent that owns the entry.
func (e *PayEntry) Discriminator() ParentKind {
	return e.owner.Kind()
}

// PayGroupID returns the owning PayGroup's ID, or nil if a Disbursement owns the entry.
func (e *PayEntry) PayGroupID() *uuid.UUID {
	if o, ok := e.owner.(OwnedByPayGroup); ok {
		id := o.PayGroupID
		return &id
	}
	return nil
}

// DisbursementID returns the owning Disbursement's ID, or nil if a PayGroup owns the entry.
func (e *PayEntry) DisbursementID() *uuid.UUID {
	if o, ok := e.owner.(OwnedByDisbursement); ok {
		id := o.DisbursementID
		return &id
	}
	return nil
}

// AttachPayGroup hydrates the entry's PayGroup parent.
func (e *PayEntry) AttachPayGroup(pg *PayGroup) error {
	o, ok := e.owner.(OwnedByPayGroup)
	if !ok {
		return inconsistent(e.ID, e.kind(), "pay_group", "attached to an entry not owned by a pay group")
	}
	if pg == nil || pg.ID != o.PayGroupID {
		return inconsistent(e.ID, ParentPayGroup, "pay_group", "does not match the stored pay_group_id")
	}
	e.payGroup = pg
	return nil
}

// AttachDisbursement hydrates the entry's Disbursement parent.
func (e *PayEntry) AttachDisbursement(d *Disbursement) error {
	o, ok := e.owner.(OwnedByDisbursement)
	if !ok {
		return inconsistent(e.ID, e.kind(), "disbursement", "attached to an entry not owned by a disbursement")
	}
	if d == nil || d.ID != o.DisbursementID {
		return inconsistent(e.ID, ParentDisbursement, "disbursement", "does not match the stored disbursement_id")
	}
	e.disbursement = d
	return nil
}

// kind is Discriminator without assuming the owner is set.
func (e *PayEntry) kind() ParentKind {
	if e.owner == nil {
		return -1
	}
	return e.owner.Kind()
}

// PayEntryRecord is the flat storage shape of a PayEntry: a discriminator and
// two nullable foreign keys.
type PayEntryRecord struct {
	ID             uuid.UUID
	Discriminator  ParentKind
	PayGroupID     *uuid.UUID
	DisbursementID *uuid.UUID
	EmployeeID     string
	AccountNumber  string
	RoutingNumber  string
	Amount         decimal.Decimal
}

// Record flattens the entry for storage.
func (e *PayEntry) Record() PayEntryRecord {
	return PayEntryRecord{
		ID:             e.ID,
		Discriminator:  e.Discriminator(),
		PayGroupID:     e.PayGroupID(),
		DisbursementID: e.DisbursementID(),
		EmployeeID:     e.EmployeeID,
		AccountNumber:  e.AccountNumber,
		RoutingNumber:  e.RoutingNumber,
		Amount:         e.Amount,
	}
}

// Check reports whether the record's discriminator and foreign keys agree.
func (r PayEntryRecord) Check() error {
	switch r.Discriminator {
	case ParentPayGroup:
		if r.PayGroupID == nil || *r.PayGroupID == uuid.Nil {
			return inconsistent(r.ID, r.Discriminator, "pay_group", "is null")
		}
		if r.DisbursementID != nil {
			return inconsistent(r.ID, r.Discriminator, "disbursement", "is set")
		}
	case ParentDisbursement:
		if r.DisbursementID == nil || *r.DisbursementID == uuid.Nil {
			return inconsistent(r.ID, r.Discriminator, "disbursement", "is null")
		}
		if r.PayGroupID != nil {
			return inconsistent(r.ID, r.Discriminator, "pay_group", "is set")
		}
	default:
		return inconsistent(r.ID, r.Discriminator, "discriminator", "is unknown")
	}
	return nil
}

// RestorePayEntry rebuilds an entry from its stored record. The parent is not
// hydrated; callers attach it afterwards.
func RestorePayEntry(r PayEntryRecord) (*PayEntry, error) {
	if err := r.Check(); err != nil {
		return nil, err
	}

	var owner Owner
	if r.Discriminator == ParentPayGroup {
		owner = OwnedByPayGroup{PayGroupID: *r.PayGroupID}
	} else {
		owner = OwnedByDisbursement{DisbursementID: *r.DisbursementID}
	}

	return &PayEntry{
		ID:            r.ID,
		EmployeeID:    r.EmployeeID,
		AccountNumber: r.AccountNumber,
		RoutingNumber: r.RoutingNumber,
		Amount:        r.Amount,
		owner:         owner,
	}, nil
}
