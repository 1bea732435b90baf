package models

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDisbursementTransitions(t *testing.T) {
	tests := []struct {
		from    DisbursementState
		to      DisbursementState
		allowed bool
	}{
		{DisbursementPending, DisbursementApproved, true},
		{DisbursementPending, DisbursementRejected, true},
		{DisbursementApproved, DisbursementScheduled, true},
		{DisbursementPending, DisbursementScheduled, false},
		{DisbursementApproved, DisbursementRejected, false},
		{DisbursementRejected, DisbursementApproved, false},
		{DisbursementScheduled, DisbursementPending, false},
		{DisbursementPending, DisbursementPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			d := &Disbursement{ID: uuid.New(), State: tt.from, UpdatedAt: created, UpdatedBy: "creator"}
			later := created.Add(time.Hour)

			err := d.TransitionTo(tt.to, "approver", later)
			if tt.allowed {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if d.State != tt.to || d.UpdatedBy != "approver" || !d.UpdatedAt.Equal(later) {
					t.Errorf("transition not recorded: %+v", d)
				}
				return
			}
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
			if d.State != tt.from || d.UpdatedBy != "creator" {
				t.Errorf("rejected transition mutated disbursement: %+v", d)
			}
		})
	}
}

func TestTerminalStates(t *testing.T) {
	if !DisbursementRejected.IsTerminal() || !DisbursementScheduled.IsTerminal() {
		t.Error("rejected and scheduled must be terminal")
	}
	if DisbursementPending.IsTerminal() || DisbursementApproved.IsTerminal() {
		t.Error("pending and approved must not be terminal")
	}
}

func TestNewDisbursement(t *testing.T) {
	now := time.Now().UTC()

	d, err := NewDisbursement(uuid.New(), now.Add(48*time.Hour), "admin", now)
	if err != nil {
		t.Fatalf("NewDisbursement failed: %v", err)
	}
	if d.State != DisbursementPending {
		t.Errorf("state = %s, want PENDING", d.State)
	}
	if d.UpdatedBy != "admin" {
		t.Errorf("updated by = %q, want admin", d.UpdatedBy)
	}

	_, err = NewDisbursement(uuid.Nil, time.Time{}, "admin", now)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) != 2 {
		t.Fatalf("expected two field errors, got %v", err)
	}
}

func TestNewPayGroup(t *testing.T) {
	now := time.Now().UTC()

	pg, err := NewPayGroup("  Payroll East ", PayCategoryPayroll, []string{"carol", "alice", "carol", "bob"}, now)
	if err != nil {
		t.Fatalf("NewPayGroup failed: %v", err)
	}
	if pg.Name != "Payroll East" {
		t.Errorf("name = %q, want trimmed", pg.Name)
	}
	want := []string{"alice", "bob", "carol"}
	if len(pg.ApproverIDs) != len(want) {
		t.Fatalf("approvers = %v, want %v", pg.ApproverIDs, want)
	}
	for i := range want {
		if pg.ApproverIDs[i] != want[i] {
			t.Errorf("approvers = %v, want %v", pg.ApproverIDs, want)
			break
		}
	}
	if !pg.HasApprover("bob") || pg.HasApprover("dave") {
		t.Error("HasApprover mismatch")
	}

	_, err = NewPayGroup("", PayCategory("BONUS"), nil, now)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) != 2 {
		t.Fatalf("expected name and category errors, got %v", err)
	}
}

func TestParsePayCategory(t *testing.T) {
	if c, ok := ParsePayCategory("hsa"); !ok || c != PayCategoryHSA {
		t.Errorf("ParsePayCategory(hsa) = %v, %v", c, ok)
	}
	if _, ok := ParsePayCategory("bonus"); ok {
		t.Error("expected bonus to be rejected")
	}
}
