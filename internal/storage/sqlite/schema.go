package sqlite

import "context"

// schema is the full DDL. Statements are idempotent so startup can
// re-apply them on every boot.
const schema = `
CREATE TABLE IF NOT EXISTS permissions (
	name        TEXT PRIMARY KEY,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS roles (
	name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS role_permissions (
	role_name       TEXT NOT NULL REFERENCES roles(name) ON DELETE CASCADE,
	permission_name TEXT NOT NULL REFERENCES permissions(name) ON DELETE CASCADE,
	PRIMARY KEY (role_name, permission_name)
);

CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	mobile        TEXT,
	password_hash TEXT NOT NULL,
	status        TEXT NOT NULL,
	customer_id   INTEGER REFERENCES customers(id),
	created_at    TEXT NOT NULL,
	modified_at   TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_mobile ON users(mobile) WHERE mobile IS NOT NULL AND mobile != '';
CREATE INDEX IF NOT EXISTS idx_users_status ON users(status);

CREATE TABLE IF NOT EXISTS user_roles (
	user_id   INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	role_name TEXT NOT NULL REFERENCES roles(name) ON DELETE CASCADE,
	PRIMARY KEY (user_id, role_name)
);

CREATE TABLE IF NOT EXISTS customers (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	customer_number TEXT NOT NULL UNIQUE,
	first_name      TEXT NOT NULL,
	last_name       TEXT NOT NULL,
	email           TEXT NOT NULL,
	mobile          TEXT NOT NULL,
	national_id     TEXT NOT NULL,
	date_of_birth   TEXT,
	address_line1   TEXT NOT NULL DEFAULT '',
	address_line2   TEXT,
	city            TEXT NOT NULL DEFAULT '',
	state           TEXT NOT NULL DEFAULT '',
	postal_code     TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	other_info      TEXT NOT NULL DEFAULT '{}',
	created_at      TEXT NOT NULL,
	modified_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	id                    INTEGER PRIMARY KEY AUTOINCREMENT,
	account_number        TEXT NOT NULL UNIQUE,
	customer_id           INTEGER NOT NULL REFERENCES customers(id),
	account_type          TEXT NOT NULL,
	balance               TEXT NOT NULL,
	available_balance     TEXT NOT NULL,
	minimum_balance       TEXT NOT NULL,
	currency              TEXT NOT NULL,
	status                TEXT NOT NULL,
	last_transaction_date TEXT,
	created_at            TEXT NOT NULL,
	modified_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_customer ON accounts(customer_id);

CREATE TABLE IF NOT EXISTS transactions (
	id                     INTEGER PRIMARY KEY AUTOINCREMENT,
	transaction_reference  TEXT NOT NULL UNIQUE,
	external_reference     TEXT,
	account_id             INTEGER NOT NULL REFERENCES accounts(id),
	destination_account_id INTEGER REFERENCES accounts(id),
	type                   TEXT NOT NULL,
	amount                 TEXT NOT NULL,
	currency               TEXT NOT NULL,
	balance_before         TEXT NOT NULL,
	balance_after          TEXT NOT NULL,
	status                 TEXT NOT NULL,
	description            TEXT,
	category               TEXT,
	initiated_by           TEXT NOT NULL,
	approved_by            TEXT,
	bulk_batch_id          TEXT,
	failure_reason         TEXT,
	transaction_date       TEXT NOT NULL,
	created_at             TEXT NOT NULL,
	modified_at            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_account_date ON transactions(account_id, transaction_date DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status);
CREATE INDEX IF NOT EXISTS idx_transactions_external_ref ON transactions(external_reference);

CREATE TABLE IF NOT EXISTS beneficiaries (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	customer_id    INTEGER NOT NULL REFERENCES customers(id),
	name           TEXT NOT NULL,
	account_number TEXT NOT NULL,
	ifsc_code      TEXT NOT NULL,
	bank_name      TEXT NOT NULL,
	branch_name    TEXT,
	email          TEXT,
	mobile         TEXT,
	is_verified    INTEGER NOT NULL DEFAULT 0,
	status         TEXT NOT NULL,
	verified_by    TEXT,
	verified_at    TEXT,
	last_used_at   TEXT,
	created_at     TEXT NOT NULL,
	modified_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_beneficiaries_customer ON beneficiaries(customer_id, status);

CREATE TABLE IF NOT EXISTS eft_transactions (
	id                         INTEGER PRIMARY KEY AUTOINCREMENT,
	eft_reference              TEXT NOT NULL UNIQUE,
	eft_type                   TEXT NOT NULL,
	source_account_id          INTEGER NOT NULL REFERENCES accounts(id),
	beneficiary_id             INTEGER NOT NULL REFERENCES beneficiaries(id),
	beneficiary_name           TEXT NOT NULL,
	beneficiary_account_number TEXT NOT NULL,
	beneficiary_ifsc           TEXT NOT NULL,
	beneficiary_bank           TEXT NOT NULL,
	amount                     TEXT NOT NULL,
	charges                    TEXT NOT NULL,
	total_amount               TEXT NOT NULL,
	status                     TEXT NOT NULL,
	batch_id                   TEXT,
	batch_time                 TEXT,
	estimated_completion       TEXT,
	actual_completion          TEXT,
	transaction_id             INTEGER NOT NULL REFERENCES transactions(id),
	processed_by               TEXT,
	failure_reason             TEXT,
	created_at                 TEXT NOT NULL,
	modified_at                TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_eft_type_status_created ON eft_transactions(eft_type, status, created_at);
CREATE INDEX IF NOT EXISTS idx_eft_source_account ON eft_transactions(source_account_id, created_at DESC);

CREATE TABLE IF NOT EXISTS eft_batches (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_id     TEXT NOT NULL UNIQUE,
	eft_type     TEXT NOT NULL,
	total        INTEGER NOT NULL DEFAULT 0,
	succeeded    INTEGER NOT NULL DEFAULT 0,
	failed       INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	completed_at TEXT
);

CREATE TABLE IF NOT EXISTS qr_requests (
	id                    INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id            TEXT NOT NULL UNIQUE,
	receiver_customer_id  INTEGER NOT NULL REFERENCES customers(id),
	receiver_account_id   INTEGER NOT NULL REFERENCES accounts(id),
	amount                TEXT NOT NULL,
	description           TEXT,
	status                TEXT NOT NULL,
	expires_at            TEXT NOT NULL,
	paid_by               TEXT,
	paid_at               TEXT,
	debit_transaction_id  INTEGER REFERENCES transactions(id),
	credit_transaction_id INTEGER REFERENCES transactions(id),
	created_at            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_qr_requests_status ON qr_requests(status, expires_at);

CREATE TABLE IF NOT EXISTS upi_addresses (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	upi_id      TEXT NOT NULL UNIQUE,
	user_id     INTEGER NOT NULL REFERENCES users(id),
	customer_id INTEGER NOT NULL REFERENCES customers(id),
	account_id  INTEGER NOT NULL REFERENCES accounts(id),
	status      TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	modified_at TEXT NOT NULL
);
`

// applySchema creates all tables and indexes.
func (s *Store) applySchema(ctx context.Context) error {
	_, err := s.q.ExecContext(ctx, schema)
	return err
}
