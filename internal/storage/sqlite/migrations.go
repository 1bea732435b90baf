package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// IMPORTANT: parents are created before children because of the foreign keys.
//
// pay_entries carries the single-parent rule as a CHECK constraint so rows
// written outside the application are rejected too.
const schema = `
CREATE TABLE IF NOT EXISTS pay_groups (
    id TEXT PRIMARY KEY,
    category TEXT NOT NULL CHECK (category IN ('PAYROLL', 'HSA')),
    name TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS pay_group_approvers (
    pay_group_id TEXT NOT NULL,
    approver_id TEXT NOT NULL,
    PRIMARY KEY (pay_group_id, approver_id),
    FOREIGN KEY (pay_group_id) REFERENCES pay_groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS disbursements (
    id TEXT PRIMARY KEY,
    pay_group_id TEXT NOT NULL,
    scheduled_at INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    updated_by TEXT NOT NULL,
    state TEXT NOT NULL CHECK (state IN ('PENDING', 'REJECTED', 'APPROVED', 'SCHEDULED')),
    FOREIGN KEY (pay_group_id) REFERENCES pay_groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS pay_entries (
    id TEXT PRIMARY KEY,
    discriminator INTEGER NOT NULL,
    pay_group_id TEXT,
    disbursement_id TEXT,
    employee_id TEXT NOT NULL,
    account_number TEXT NOT NULL,
    routing_number TEXT NOT NULL,
    amount TEXT NOT NULL,
    FOREIGN KEY (pay_group_id) REFERENCES pay_groups(id) ON DELETE CASCADE,
    FOREIGN KEY (disbursement_id) REFERENCES disbursements(id) ON DELETE CASCADE,
    CONSTRAINT ck_pay_entries_single_parent CHECK (
        (discriminator = 0 AND pay_group_id IS NOT NULL AND disbursement_id IS NULL) OR
        (discriminator = 1 AND pay_group_id IS NULL AND disbursement_id IS NOT NULL)
    )
);

CREATE TABLE IF NOT EXISTS business_employees (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL COLLATE NOCASE UNIQUE
);

CREATE TABLE IF NOT EXISTS bank_accounts (
    business_employee_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    account_id TEXT NOT NULL,
    routing_number TEXT NOT NULL CHECK (length(routing_number) = 9),
    pay_percentage TEXT NOT NULL,
    PRIMARY KEY (business_employee_id, position),
    FOREIGN KEY (business_employee_id) REFERENCES business_employees(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_disbursements_pay_group_id ON disbursements(pay_group_id);
CREATE INDEX IF NOT EXISTS idx_pay_entries_pay_group_id ON pay_entries(pay_group_id);
CREATE INDEX IF NOT EXISTS idx_pay_entries_disbursement_id ON pay_entries(disbursement_id);
CREATE INDEX IF NOT EXISTS idx_bank_accounts_business_employee_id ON bank_accounts(business_employee_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
