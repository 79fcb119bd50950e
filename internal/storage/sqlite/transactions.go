package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bobmcallan/corebank/internal/models"
	"github.com/shopspring/decimal"
)

type transactionStore struct {
	s *Store
}

const transactionColumns = `id, transaction_reference, COALESCE(external_reference, ''), account_id,
	destination_account_id, type, amount, currency, balance_before, balance_after, status,
	COALESCE(description, ''), COALESCE(category, ''), initiated_by, COALESCE(approved_by, ''),
	COALESCE(bulk_batch_id, ''), COALESCE(failure_reason, ''), transaction_date, created_at, modified_at`

func (t *transactionStore) scan(row interface{ Scan(...any) error }) (*models.Transaction, error) {
	var txn models.Transaction
	var destID sql.NullInt64
	var amount, before, after string
	var txnDate, createdAt, modifiedAt string
	err := row.Scan(&txn.ID, &txn.TransactionReference, &txn.ExternalReference, &txn.AccountID,
		&destID, &txn.Type, &amount, &txn.Currency, &before, &after, &txn.Status,
		&txn.Description, &txn.Category, &txn.InitiatedBy, &txn.ApprovedBy,
		&txn.BulkBatchID, &txn.FailureReason, &txnDate, &createdAt, &modifiedAt)
	if err != nil {
		return nil, err
	}
	txn.DestinationAccountID = int64Ptr(destID)
	txn.Amount = parseDecimal(amount)
	txn.BalanceBefore = parseDecimal(before)
	txn.BalanceAfter = parseDecimal(after)
	txn.TransactionDate = parseTime(txnDate)
	txn.CreatedAt = parseTime(createdAt)
	txn.ModifiedAt = parseTime(modifiedAt)
	return &txn, nil
}

func (t *transactionStore) Create(ctx context.Context, txn *models.Transaction) error {
	res, err := t.s.q.ExecContext(ctx, `
		INSERT INTO transactions (transaction_reference, external_reference, account_id,
			destination_account_id, type, amount, currency, balance_before, balance_after, status,
			description, category, initiated_by, approved_by, bulk_batch_id, failure_reason,
			transaction_date, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.TransactionReference, nullStr(txn.ExternalReference), txn.AccountID,
		nullInt64(txn.DestinationAccountID), string(txn.Type), fmtDecimal(txn.Amount),
		txn.Currency, fmtDecimal(txn.BalanceBefore), fmtDecimal(txn.BalanceAfter),
		string(txn.Status), nullStr(txn.Description), nullStr(txn.Category),
		txn.InitiatedBy, nullStr(txn.ApprovedBy), nullStr(txn.BulkBatchID),
		nullStr(txn.FailureReason), fmtTime(txn.TransactionDate),
		fmtTime(txn.CreatedAt), fmtTime(txn.ModifiedAt))
	if err != nil {
		return mapErr(err, "transaction", txn.TransactionReference)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read transaction id: %w", err)
	}
	txn.ID = id
	return nil
}

func (t *transactionStore) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	row := t.s.q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	txn, err := t.scan(row)
	if err != nil {
		return nil, mapErr(err, "transaction", fmt.Sprintf("%d", id))
	}
	return txn, nil
}

func (t *transactionStore) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	row := t.s.q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE transaction_reference = ?`, reference)
	txn, err := t.scan(row)
	if err != nil {
		return nil, mapErr(err, "transaction", reference)
	}
	return txn, nil
}

func (t *transactionStore) UpdateStatus(ctx context.Context, id int64, status models.TransactionStatus, failureReason string) error {
	res, err := t.s.q.ExecContext(ctx,
		`UPDATE transactions SET status = ?, failure_reason = ?, modified_at = ? WHERE id = ?`,
		string(status), nullStr(failureReason), fmtTime(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("failed to update transaction %d status: %w", id, err)
	}
	return requireRow(res, "transaction", id)
}

func (t *transactionStore) SetBalances(ctx context.Context, id int64, before, after decimal.Decimal) error {
	res, err := t.s.q.ExecContext(ctx,
		`UPDATE transactions SET balance_before = ?, balance_after = ?, modified_at = ? WHERE id = ?`,
		fmtDecimal(before), fmtDecimal(after), fmtTime(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("failed to set balances for transaction %d: %w", id, err)
	}
	return requireRow(res, "transaction", id)
}

func (t *transactionStore) ListByAccount(ctx context.Context, accountID int64, q models.JournalQuery) ([]*models.Transaction, error) {
	var where []string
	var args []any
	where = append(where, "account_id = ?")
	args = append(args, accountID)
	if q.From != nil {
		where = append(where, "transaction_date >= ?")
		args = append(args, fmtTime(*q.From))
	}
	if q.To != nil {
		where = append(where, "transaction_date <= ?")
		args = append(args, fmtTime(*q.To))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, q.Offset)

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` +
		strings.Join(where, " AND ") +
		` ORDER BY transaction_date DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := t.s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for account %d: %w", accountID, err)
	}
	defer rows.Close()
	var txns []*models.Transaction
	for rows.Next() {
		txn, err := t.scan(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}
