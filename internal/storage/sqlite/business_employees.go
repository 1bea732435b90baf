package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/payroll/internal/models"
)

// CreateBusinessEmployee inserts a business employee and their bank accounts.
// A duplicate email fails with storage.ErrConflict.
func (s *SQLiteStore) CreateBusinessEmployee(ctx context.Context, e *models.BusinessEmployee) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO business_employees (id, name, email) VALUES (?, ?, ?)",
			e.ID, e.Name, models.NormalizeEmail(e.Email),
		)
		if err != nil {
			return fmt.Errorf("failed to create business employee: %w", translate(err))
		}
		return insertBankAccounts(ctx, tx, e)
	})
}

func insertBankAccounts(ctx context.Context, tx *sql.Tx, e *models.BusinessEmployee) error {
	for i, acct := range e.BankAccounts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bank_accounts (business_employee_id, position, account_id, routing_number, pay_percentage)
			 VALUES (?, ?, ?, ?, ?)`,
			e.ID, i, acct.AccountID, acct.RoutingNumber, acct.PayPercentage.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert bank account: %w", translate(err))
		}
	}
	return nil
}

// GetBusinessEmployee retrieves a business employee with their bank accounts
// in their original order.
func (s *SQLiteStore) GetBusinessEmployee(ctx context.Context, id uuid.UUID) (*models.BusinessEmployee, error) {
	e := &models.BusinessEmployee{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email FROM business_employees WHERE id = ?",
		id,
	).Scan(&e.ID, &e.Name, &e.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("business employee", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get business employee: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT account_id, routing_number, pay_percentage
		 FROM bank_accounts WHERE business_employee_id = ? ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get bank accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var acct models.BankAccount
		if err := rows.Scan(&acct.AccountID, &acct.RoutingNumber, &acct.PayPercentage); err != nil {
			return nil, fmt.Errorf("failed to scan bank account: %w", err)
		}
		e.BankAccounts = append(e.BankAccounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bank accounts: %w", err)
	}

	return e, nil
}

// UpdateBusinessEmployee replaces the name, email and bank accounts of an
// existing business employee.
func (s *SQLiteStore) UpdateBusinessEmployee(ctx context.Context, e *models.BusinessEmployee) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE business_employees SET name = ?, email = ? WHERE id = ?",
			e.Name, models.NormalizeEmail(e.Email), e.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update business employee: %w", translate(err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check updated rows: %w", err)
		}
		if n == 0 {
			return notFound("business employee", e.ID)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM bank_accounts WHERE business_employee_id = ?", e.ID); err != nil {
			return fmt.Errorf("failed to clear bank accounts: %w", err)
		}
		return insertBankAccounts(ctx, tx, e)
	})
}

// DeleteBusinessEmployee removes a business employee; their bank accounts cascade.
func (s *SQLiteStore) DeleteBusinessEmployee(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM business_employees WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete business employee: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return notFound("business employee", id)
	}

	return nil
}
