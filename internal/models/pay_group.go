package models

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PayCategory classifies what a PayGroup pays out.
type PayCategory string

const (
	PayCategoryPayroll PayCategory = "PAYROLL"
	PayCategoryHSA     PayCategory = "HSA"
)

// ParsePayCategory converts external input into a PayCategory. Matching is
// case-insensitive.
func ParsePayCategory(s string) (PayCategory, bool) {
	c := PayCategory(strings.ToUpper(strings.TrimSpace(s)))
	return c, c.IsValid()
}

// IsValid reports whether c is one of the supported categories.
func (c PayCategory) IsValid() bool {
	return c == PayCategoryPayroll || c == PayCategoryHSA
}

func (c PayCategory) String() string {
	return string(c)
}

// PayGroup is the administrative aggregate that owns Disbursements and
// PayEntries. Deleting it cascades to everything it owns.
type PayGroup struct {
	ID       uuid.UUID
	Category PayCategory
	Name     string

	// ApproverIDs is a set; order carries no meaning. NewPayGroup stores it
	// deduplicated and sorted.
	ApproverIDs []string

	CreatedAt time.Time
}

// NewPayGroup builds a PayGroup with a fresh identifier.
func NewPayGroup(name string, category PayCategory, approverIDs []string, now time.Time) (*PayGroup, error) {
	var errs ValidationErrors
	name = strings.TrimSpace(name)
	if name == "" {
		errs.add("name", "is required")
	} else if len([]rune(name)) > 200 {
		errs.add("name", "must be at most 200 characters")
	}
	if !category.IsValid() {
		errs.add("category", "must be one of PAYROLL, HSA")
	}
	for _, id := range approverIDs {
		if strings.TrimSpace(id) == "" {
			errs.add("approverIds", "must not contain empty identifiers")
			break
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	return &PayGroup{
		ID:          uuid.New(),
		Category:    category,
		Name:        name,
		ApproverIDs: approverSet(approverIDs),
		CreatedAt:   now,
	}, nil
}

// HasApprover reports whether actorID may approve disbursements of this group.
func (g *PayGroup) HasApprover(actorID string) bool {
	return slices.Contains(g.ApproverIDs, actorID)
}

func approverSet(ids []string) []string {
	set := make([]string, 0, len(ids))
	for _, id := range ids {
		set = append(set, strings.TrimSpace(id))
	}
	slices.Sort(set)
	return slices.Compact(set)
}

// ParentKind implements Parent.
func (*PayGroup) ParentKind() ParentKind { return ParentPayGroup }

func (*PayGroup) isParent() {}
