package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DisbursementState is the lifecycle state of a Disbursement.
type DisbursementState string

const (
	DisbursementPending   DisbursementState = "PENDING"
	DisbursementRejected  DisbursementState = "REJECTED"
	DisbursementApproved  DisbursementState = "APPROVED"
	DisbursementScheduled DisbursementState = "SCHEDULED"
)

// transitions lists the states reachable from each state. Rejected and
// Scheduled are terminal.
var transitions = map[DisbursementState][]DisbursementState{
	DisbursementPending:  {DisbursementRejected, DisbursementApproved},
	DisbursementApproved: {DisbursementScheduled},
}

// ParseDisbursementState converts external input into a DisbursementState.
func ParseDisbursementState(s string) (DisbursementState, bool) {
	st := DisbursementState(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.IsValid()
}

// IsValid reports whether s is a known state.
func (s DisbursementState) IsValid() bool {
	switch s {
	case DisbursementPending, DisbursementRejected, DisbursementApproved, DisbursementScheduled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible from s.
func (s DisbursementState) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether s may move to next.
func (s DisbursementState) CanTransitionTo(next DisbursementState) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s DisbursementState) String() string {
	return string(s)
}

// Disbursement is a scheduled payout belonging to exactly one PayGroup.
type Disbursement struct {
	ID         uuid.UUID
	PayGroupID uuid.UUID

	// ScheduledAt is when the funds are meant to move.
	ScheduledAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	// UpdatedBy identifies the actor behind the most recent change.
	UpdatedBy string

	State DisbursementState
}

// NewDisbursement creates a pending Disbursement under payGroupID.
func NewDisbursement(payGroupID uuid.UUID, scheduledAt time.Time, actor string, now time.Time) (*Disbursement, error) {
	var errs ValidationErrors
	if payGroupID == uuid.Nil {
		errs.add("payGroupId", "is required")
	}
	if scheduledAt.IsZero() {
		errs.add("scheduledAt", "is required")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	return &Disbursement{
		ID:          uuid.New(),
		PayGroupID:  payGroupID,
		ScheduledAt: scheduledAt.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
		UpdatedBy:   actor,
		State:       DisbursementPending,
	}, nil
}

// TransitionTo moves the Disbursement to next, recording who made the change.
// It returns an error wrapping ErrInvalidTransition when the move is not allowed.
func (d *Disbursement) TransitionTo(next DisbursementState, actor string, now time.Time) error {
	if !d.State.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.State, next)
	}
	d.State = next
	d.UpdatedAt = now
	d.UpdatedBy = actor
	return nil
}

// ParentKind implements Parent.
func (*Disbursement) ParentKind() ParentKind { return ParentDisbursement }

func (*Disbursement) isParent() {}
