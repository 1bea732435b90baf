// Package validation checks inbound entities before they reach storage and
// reports every problem as a field-scoped error.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"

	"github.com/mmynk/payroll/internal/models"
)

// Validator wraps a configured go-playground validator. It is safe for
// concurrent use.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the payroll rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names so field paths match what API callers sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		d, ok := field.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		f, _ := d.Float64()
		return f
	}, decimal.Decimal{})

	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("routing", func(fl validator.FieldLevel) bool {
		return models.IsRoutingNumber(fl.Field().String())
	})

	v.RegisterStructValidation(businessEmployeeRules, models.BusinessEmployee{})

	return &Validator{v: v}
}

func businessEmployeeRules(sl validator.StructLevel) {
	e := sl.Current().Interface().(models.BusinessEmployee)
	if len(e.BankAccounts) == 0 {
		return
	}
	if !models.PayPercentagesBalanced(e.BankAccounts) {
		sum := models.SumPayPercentages(e.BankAccounts)
		sl.ReportError(e.BankAccounts, "bankAccounts", "BankAccounts", "pct_sum", sum.String())
	}
}

// BusinessEmployee validates e. The result is empty when e is valid.
func (v *Validator) BusinessEmployee(e *models.BusinessEmployee) models.ValidationErrors {
	return v.check(e)
}

// Employee validates e. The result is empty when e is valid.
func (v *Validator) Employee(e *models.Employee) models.ValidationErrors {
	return v.check(e)
}

func (v *Validator) check(s any) models.ValidationErrors {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return models.ValidationErrors{{Field: "", Message: err.Error()}}
	}

	out := make(models.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, models.FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: message(fe),
		})
	}
	return out
}

// fieldPath drops the root struct name from a validator namespace:
// "BusinessEmployee.bankAccounts[0].routingNumber" -> "bankAccounts[0].routingNumber".
func fieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return rest
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s entry", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "routing":
		return "must be exactly 9 digits"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "pct_sum":
		return fmt.Sprintf("pay percentages must sum to 1.0 (got %s)", fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

var std = New()

// ValidateBusinessEmployee checks e with the shared Validator.
func ValidateBusinessEmployee(e *models.BusinessEmployee) models.ValidationErrors {
	return std.BusinessEmployee(e)
}

// ValidateEmployee checks e with the shared Validator.
func ValidateEmployee(e *models.Employee) models.ValidationErrors {
	return std.Employee(e)
}
