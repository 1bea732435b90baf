package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Employee is a directory profile. Employees are stored in the key-value
// store, separately from the payroll aggregates.
type Employee struct {
	ID         uuid.UUID       `json:"id"`
	FirstName  string          `json:"firstName" validate:"required,notblank,max=100"`
	LastName   string          `json:"lastName" validate:"required,notblank,max=100"`
	Email      string          `json:"email" validate:"required,max=320,email"`
	Department string          `json:"department" validate:"max=100"`
	Salary     decimal.Decimal `json:"salary" validate:"gt=0"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// FullName joins the first and last name.
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}
