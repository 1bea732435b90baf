package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	one = decimal.NewFromInt(1)

	// PayPercentageTolerance is how far the account split may drift from
	// 1.0. It admits a 1.002 split and rejects 1.004 or 0.995.
	PayPercentageTolerance = decimal.RequireFromString("0.002")
)

// BusinessEmployee is a payee whose pay is split across bank accounts.
// Email is unique across all BusinessEmployees.
type BusinessEmployee struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name" validate:"required,notblank,max=200"`
	Email        string        `json:"email" validate:"required,max=320,email"`
	BankAccounts []BankAccount `json:"bankAccounts" validate:"min=1,dive"`
}

// BankAccount is one destination of a BusinessEmployee's pay. It has no
// identity outside its employee.
type BankAccount struct {
	AccountID     string          `json:"accountId" validate:"required,notblank"`
	RoutingNumber string          `json:"routingNumber" validate:"required,routing"`
	PayPercentage decimal.Decimal `json:"payPercentage" validate:"gt=0,lte=1"`
}

// NormalizeEmail lowercases and trims an address for uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SumPayPercentages adds up the pay percentages of accounts.
func SumPayPercentages(accounts []BankAccount) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range accounts {
		sum = sum.Add(a.PayPercentage)
	}
	return sum
}

// PayPercentagesBalanced reports whether the accounts split the whole pay,
// comparing the exact sum against 1.0 within PayPercentageTolerance.
func PayPercentagesBalanced(accounts []BankAccount) bool {
	sum := SumPayPercentages(accounts)
	return sum.Sub(one).Abs().LessThanOrEqual(PayPercentageTolerance)
}
