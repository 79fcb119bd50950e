package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bobmcallan/corebank/internal/models"
)

type beneficiaryStore struct {
	s *Store
}

const beneficiaryColumns = `id, customer_id, name, account_number, ifsc_code, bank_name,
	COALESCE(branch_name, ''), COALESCE(email, ''), COALESCE(mobile, ''), is_verified, status,
	COALESCE(verified_by, ''), verified_at, last_used_at, created_at, modified_at`

func (b *beneficiaryStore) scan(row interface{ Scan(...any) error }) (*models.Beneficiary, error) {
	var ben models.Beneficiary
	var verified int
	var verifiedAt, lastUsedAt sql.NullString
	var createdAt, modifiedAt string
	err := row.Scan(&ben.ID, &ben.CustomerID, &ben.Name, &ben.AccountNumber, &ben.IFSCCode,
		&ben.BankName, &ben.BranchName, &ben.Email, &ben.Mobile, &verified, &ben.Status,
		&ben.VerifiedBy, &verifiedAt, &lastUsedAt, &createdAt, &modifiedAt)
	if err != nil {
		return nil, err
	}
	ben.IsVerified = verified != 0
	ben.VerifiedAt = parseTimePtr(verifiedAt)
	ben.LastUsedAt = parseTimePtr(lastUsedAt)
	ben.CreatedAt = parseTime(createdAt)
	ben.ModifiedAt = parseTime(modifiedAt)
	return &ben, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (b *beneficiaryStore) Create(ctx context.Context, ben *models.Beneficiary) error {
	res, err := b.s.q.ExecContext(ctx, `
		INSERT INTO beneficiaries (customer_id, name, account_number, ifsc_code, bank_name,
			branch_name, email, mobile, is_verified, status, verified_by, verified_at,
			last_used_at, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ben.CustomerID, ben.Name, ben.AccountNumber, ben.IFSCCode, ben.BankName,
		nullStr(ben.BranchName), nullStr(ben.Email), nullStr(ben.Mobile),
		boolToInt(ben.IsVerified), string(ben.Status), nullStr(ben.VerifiedBy),
		fmtTimePtr(ben.VerifiedAt), fmtTimePtr(ben.LastUsedAt),
		fmtTime(ben.CreatedAt), fmtTime(ben.ModifiedAt))
	if err != nil {
		return mapErr(err, "beneficiary", ben.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read beneficiary id: %w", err)
	}
	ben.ID = id
	return nil
}

func (b *beneficiaryStore) GetByID(ctx context.Context, id int64) (*models.Beneficiary, error) {
	row := b.s.q.QueryRowContext(ctx,
		`SELECT `+beneficiaryColumns+` FROM beneficiaries WHERE id = ?`, id)
	ben, err := b.scan(row)
	if err != nil {
		return nil, mapErr(err, "beneficiary", fmt.Sprintf("%d", id))
	}
	return ben, nil
}

func (b *beneficiaryStore) ListByCustomer(ctx context.Context, customerID int64, includeInactive bool) ([]*models.Beneficiary, error) {
	query := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries WHERE customer_id = ?`
	if !includeInactive {
		query += ` AND status != 'INACTIVE'`
	}
	query += ` ORDER BY name`
	rows, err := b.s.q.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list beneficiaries for customer %d: %w", customerID, err)
	}
	defer rows.Close()
	var bens []*models.Beneficiary
	for rows.Next() {
		ben, err := b.scan(rows)
		if err != nil {
			return nil, err
		}
		bens = append(bens, ben)
	}
	return bens, rows.Err()
}

func (b *beneficiaryStore) Update(ctx context.Context, ben *models.Beneficiary) error {
	res, err := b.s.q.ExecContext(ctx, `
		UPDATE beneficiaries SET name = ?, account_number = ?, ifsc_code = ?, bank_name = ?,
			branch_name = ?, email = ?, mobile = ?, is_verified = ?, status = ?,
			verified_by = ?, verified_at = ?, modified_at = ?
		WHERE id = ?`,
		ben.Name, ben.AccountNumber, ben.IFSCCode, ben.BankName,
		nullStr(ben.BranchName), nullStr(ben.Email), nullStr(ben.Mobile),
		boolToInt(ben.IsVerified), string(ben.Status), nullStr(ben.VerifiedBy),
		fmtTimePtr(ben.VerifiedAt), fmtTime(nowUTC()), ben.ID)
	if err != nil {
		return fmt.Errorf("failed to update beneficiary %d: %w", ben.ID, err)
	}
	return requireRow(res, "beneficiary", ben.ID)
}

func (b *beneficiaryStore) FindDuplicate(ctx context.Context, customerID int64, accountNumber, ifsc string) (*models.Beneficiary, error) {
	row := b.s.q.QueryRowContext(ctx, `
		SELECT `+beneficiaryColumns+` FROM beneficiaries
		WHERE customer_id = ? AND account_number = ? AND ifsc_code = ? AND status != 'INACTIVE'
		LIMIT 1`, customerID, accountNumber, ifsc)
	ben, err := b.scan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicate beneficiary: %w", err)
	}
	return ben, nil
}

func (b *beneficiaryStore) MarkUsed(ctx context.Context, id int64, at time.Time) error {
	res, err := b.s.q.ExecContext(ctx,
		`UPDATE beneficiaries SET last_used_at = ?, modified_at = ? WHERE id = ?`,
		fmtTime(at), fmtTime(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("failed to mark beneficiary %d used: %w", id, err)
	}
	return requireRow(res, "beneficiary", id)
}
