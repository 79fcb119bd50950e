package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bobmcallan/corebank/internal/models"
	"github.com/shopspring/decimal"
)

type accountStore struct {
	s *Store
}

const accountColumns = `id, account_number, customer_id, account_type, balance, available_balance,
	minimum_balance, currency, status, last_transaction_date, created_at, modified_at`

func (a *accountStore) scan(row interface{ Scan(...any) error }) (*models.Account, error) {
	var acct models.Account
	var balance, available, minimum string
	var lastTxn sql.NullString
	var createdAt, modifiedAt string
	err := row.Scan(&acct.ID, &acct.AccountNumber, &acct.CustomerID, &acct.AccountType,
		&balance, &available, &minimum, &acct.Currency, &acct.Status,
		&lastTxn, &createdAt, &modifiedAt)
	if err != nil {
		return nil, err
	}
	acct.Balance = parseDecimal(balance)
	acct.AvailableBalance = parseDecimal(available)
	acct.MinimumBalance = parseDecimal(minimum)
	acct.LastTransactionDate = parseTimePtr(lastTxn)
	acct.CreatedAt = parseTime(createdAt)
	acct.ModifiedAt = parseTime(modifiedAt)
	return &acct, nil
}

func (a *accountStore) Create(ctx context.Context, acct *models.Account) error {
	res, err := a.s.q.ExecContext(ctx, `
		INSERT INTO accounts (account_number, customer_id, account_type, balance, available_balance,
			minimum_balance, currency, status, last_transaction_date, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		acct.AccountNumber, acct.CustomerID, string(acct.AccountType),
		fmtDecimal(acct.Balance), fmtDecimal(acct.AvailableBalance), fmtDecimal(acct.MinimumBalance),
		acct.Currency, string(acct.Status), fmtTimePtr(acct.LastTransactionDate),
		fmtTime(acct.CreatedAt), fmtTime(acct.ModifiedAt))
	if err != nil {
		return mapErr(err, "account", acct.AccountNumber)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read account id: %w", err)
	}
	acct.ID = id
	return nil
}

func (a *accountStore) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	row := a.s.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	acct, err := a.scan(row)
	if err != nil {
		return nil, mapErr(err, "account", fmt.Sprintf("%d", id))
	}
	return acct, nil
}

func (a *accountStore) GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	row := a.s.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_number = ?`, accountNumber)
	acct, err := a.scan(row)
	if err != nil {
		return nil, mapErr(err, "account", accountNumber)
	}
	return acct, nil
}

func (a *accountStore) ListByCustomer(ctx context.Context, customerID int64) ([]*models.Account, error) {
	rows, err := a.s.q.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE customer_id = ? ORDER BY id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for customer %d: %w", customerID, err)
	}
	defer rows.Close()
	var accounts []*models.Account
	for rows.Next() {
		acct, err := a.scan(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

func (a *accountStore) UpdateBalances(ctx context.Context, id int64, balance, available decimal.Decimal, lastTxn time.Time) error {
	res, err := a.s.q.ExecContext(ctx, `
		UPDATE accounts SET balance = ?, available_balance = ?, last_transaction_date = ?, modified_at = ?
		WHERE id = ?`,
		fmtDecimal(balance), fmtDecimal(available), fmtTime(lastTxn), fmtTime(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("failed to update balances for account %d: %w", id, err)
	}
	return requireRow(res, "account", id)
}

func (a *accountStore) UpdateStatus(ctx context.Context, id int64, status models.AccountStatus) error {
	res, err := a.s.q.ExecContext(ctx,
		`UPDATE accounts SET status = ?, modified_at = ? WHERE id = ?`,
		string(status), fmtTime(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("failed to update status for account %d: %w", id, err)
	}
	return requireRow(res, "account", id)
}
