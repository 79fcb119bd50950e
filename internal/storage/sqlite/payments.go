package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bobmcallan/corebank/internal/models"
)

type paymentStore struct {
	s *Store
}

const qrColumns = `id, request_id, receiver_customer_id, receiver_account_id, amount,
	COALESCE(description, ''), status, expires_at, COALESCE(paid_by, ''), paid_at,
	debit_transaction_id, credit_transaction_id, created_at`

func (p *paymentStore) scanQR(row interface{ Scan(...any) error }) (*models.QRPaymentRequest, error) {
	var req models.QRPaymentRequest
	var amount, expiresAt, createdAt string
	var paidAt sql.NullString
	var debitID, creditID sql.NullInt64
	err := row.Scan(&req.ID, &req.RequestID, &req.ReceiverCustomerID, &req.ReceiverAccountID,
		&amount, &req.Description, &req.Status, &expiresAt, &req.PaidBy, &paidAt,
		&debitID, &creditID, &createdAt)
	if err != nil {
		return nil, err
	}
	req.Amount = parseDecimal(amount)
	req.ExpiresAt = parseTime(expiresAt)
	req.PaidAt = parseTimePtr(paidAt)
	req.DebitTransactionID = int64Ptr(debitID)
	req.CreditTransactionID = int64Ptr(creditID)
	req.CreatedAt = parseTime(createdAt)
	return &req, nil
}

func (p *paymentStore) CreateQRRequest(ctx context.Context, req *models.QRPaymentRequest) error {
	res, err := p.s.q.ExecContext(ctx, `
		INSERT INTO qr_requests (request_id, receiver_customer_id, receiver_account_id, amount,
			description, status, expires_at, paid_by, paid_at, debit_transaction_id,
			credit_transaction_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.RequestID, req.ReceiverCustomerID, req.ReceiverAccountID, fmtDecimal(req.Amount),
		nullStr(req.Description), string(req.Status), fmtTime(req.ExpiresAt),
		nullStr(req.PaidBy), fmtTimePtr(req.PaidAt), nullInt64(req.DebitTransactionID),
		nullInt64(req.CreditTransactionID), fmtTime(req.CreatedAt))
	if err != nil {
		return mapErr(err, "qr request", req.RequestID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read qr request id: %w", err)
	}
	req.ID = id
	return nil
}

func (p *paymentStore) GetQRRequest(ctx context.Context, requestID string) (*models.QRPaymentRequest, error) {
	row := p.s.q.QueryRowContext(ctx,
		`SELECT `+qrColumns+` FROM qr_requests WHERE request_id = ?`, requestID)
	req, err := p.scanQR(row)
	if err != nil {
		return nil, mapErr(err, "qr request", requestID)
	}
	return req, nil
}

func (p *paymentStore) UpdateQRRequest(ctx context.Context, req *models.QRPaymentRequest) error {
	res, err := p.s.q.ExecContext(ctx, `
		UPDATE qr_requests SET status = ?, paid_by = ?, paid_at = ?,
			debit_transaction_id = ?, credit_transaction_id = ?
		WHERE id = ?`,
		string(req.Status), nullStr(req.PaidBy), fmtTimePtr(req.PaidAt),
		nullInt64(req.DebitTransactionID), nullInt64(req.CreditTransactionID), req.ID)
	if err != nil {
		return fmt.Errorf("failed to update qr request %s: %w", req.RequestID, err)
	}
	return requireRow(res, "qr request", req.ID)
}

func (p *paymentStore) ExpireQRRequests(ctx context.Context, now time.Time) (int, error) {
	res, err := p.s.q.ExecContext(ctx,
		`UPDATE qr_requests SET status = 'EXPIRED' WHERE status = 'ACTIVE' AND expires_at <= ?`,
		fmtTime(now))
	if err != nil {
		return 0, fmt.Errorf("failed to expire qr requests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

const upiColumns = `id, upi_id, user_id, customer_id, account_id, status, created_at, modified_at`

func (p *paymentStore) scanUPI(row interface{ Scan(...any) error }) (*models.UPIAddress, error) {
	var addr models.UPIAddress
	var createdAt, modifiedAt string
	err := row.Scan(&addr.ID, &addr.UPIID, &addr.UserID, &addr.CustomerID, &addr.AccountID,
		&addr.Status, &createdAt, &modifiedAt)
	if err != nil {
		return nil, err
	}
	addr.CreatedAt = parseTime(createdAt)
	addr.ModifiedAt = parseTime(modifiedAt)
	return &addr, nil
}

func (p *paymentStore) CreateUPI(ctx context.Context, addr *models.UPIAddress) error {
	res, err := p.s.q.ExecContext(ctx, `
		INSERT INTO upi_addresses (upi_id, user_id, customer_id, account_id, status, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		addr.UPIID, addr.UserID, addr.CustomerID, addr.AccountID, string(addr.Status),
		fmtTime(addr.CreatedAt), fmtTime(addr.ModifiedAt))
	if err != nil {
		return mapErr(err, "upi address", addr.UPIID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read upi address id: %w", err)
	}
	addr.ID = id
	return nil
}

func (p *paymentStore) GetUPI(ctx context.Context, upiID string) (*models.UPIAddress, error) {
	row := p.s.q.QueryRowContext(ctx,
		`SELECT `+upiColumns+` FROM upi_addresses WHERE upi_id = ?`, upiID)
	addr, err := p.scanUPI(row)
	if err != nil {
		return nil, mapErr(err, "upi address", upiID)
	}
	return addr, nil
}

func (p *paymentStore) ListUPIByCustomer(ctx context.Context, customerID int64) ([]*models.UPIAddress, error) {
	rows, err := p.s.q.QueryContext(ctx,
		`SELECT `+upiColumns+` FROM upi_addresses WHERE customer_id = ? ORDER BY created_at`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list upi addresses for customer %d: %w", customerID, err)
	}
	defer rows.Close()
	var addrs []*models.UPIAddress
	for rows.Next() {
		addr, err := p.scanUPI(rows)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, rows.Err()
}

func (p *paymentStore) UpdateUPIStatus(ctx context.Context, id int64, status models.UPIStatus) error {
	res, err := p.s.q.ExecContext(ctx,
		`UPDATE upi_addresses SET status = ?, modified_at = ? WHERE id = ?`,
		string(status), fmtTime(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("failed to update upi address %d: %w", id, err)
	}
	return requireRow(res, "upi address", id)
}
