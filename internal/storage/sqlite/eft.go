package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bobmcallan/corebank/internal/models"
)

type eftStore struct {
	s *Store
}

const eftColumns = `id, eft_reference, eft_type, source_account_id, beneficiary_id,
	beneficiary_name, beneficiary_account_number, beneficiary_ifsc, beneficiary_bank,
	amount, charges, total_amount, status, COALESCE(batch_id, ''), batch_time,
	estimated_completion, actual_completion, transaction_id, COALESCE(processed_by, ''),
	COALESCE(failure_reason, ''), created_at, modified_at`

func (e *eftStore) scan(row interface{ Scan(...any) error }) (*models.EFTTransaction, error) {
	var eft models.EFTTransaction
	var amount, charges, total string
	var batchTime, estimated, actual sql.NullString
	var createdAt, modifiedAt string
	err := row.Scan(&eft.ID, &eft.EFTReference, &eft.EFTType, &eft.SourceAccountID,
		&eft.BeneficiaryID, &eft.BeneficiaryName, &eft.BeneficiaryAccountNumber,
		&eft.BeneficiaryIFSC, &eft.BeneficiaryBank, &amount, &charges, &total,
		&eft.Status, &eft.BatchID, &batchTime, &estimated, &actual,
		&eft.TransactionID, &eft.ProcessedBy, &eft.FailureReason, &createdAt, &modifiedAt)
	if err != nil {
		return nil, err
	}
	eft.Amount = parseDecimal(amount)
	eft.Charges = parseDecimal(charges)
	eft.TotalAmount = parseDecimal(total)
	eft.BatchTime = parseTimePtr(batchTime)
	eft.EstimatedCompletion = parseTimePtr(estimated)
	eft.ActualCompletion = parseTimePtr(actual)
	eft.CreatedAt = parseTime(createdAt)
	eft.ModifiedAt = parseTime(modifiedAt)
	return &eft, nil
}

func (e *eftStore) Create(ctx context.Context, eft *models.EFTTransaction) error {
	res, err := e.s.q.ExecContext(ctx, `
		INSERT INTO eft_transactions (eft_reference, eft_type, source_account_id, beneficiary_id,
			beneficiary_name, beneficiary_account_number, beneficiary_ifsc, beneficiary_bank,
			amount, charges, total_amount, status, batch_id, batch_time, estimated_completion,
			actual_completion, transaction_id, processed_by, failure_reason, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		eft.EFTReference, string(eft.EFTType), eft.SourceAccountID, eft.BeneficiaryID,
		eft.BeneficiaryName, eft.BeneficiaryAccountNumber, eft.BeneficiaryIFSC, eft.BeneficiaryBank,
		fmtDecimal(eft.Amount), fmtDecimal(eft.Charges), fmtDecimal(eft.TotalAmount),
		string(eft.Status), nullStr(eft.BatchID), fmtTimePtr(eft.BatchTime),
		fmtTimePtr(eft.EstimatedCompletion), fmtTimePtr(eft.ActualCompletion),
		eft.TransactionID, nullStr(eft.ProcessedBy), nullStr(eft.FailureReason),
		fmtTime(eft.CreatedAt), fmtTime(eft.ModifiedAt))
	if err != nil {
		return mapErr(err, "eft", eft.EFTReference)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read eft id: %w", err)
	}
	eft.ID = id
	return nil
}

func (e *eftStore) GetByID(ctx context.Context, id int64) (*models.EFTTransaction, error) {
	row := e.s.q.QueryRowContext(ctx,
		`SELECT `+eftColumns+` FROM eft_transactions WHERE id = ?`, id)
	eft, err := e.scan(row)
	if err != nil {
		return nil, mapErr(err, "eft", fmt.Sprintf("%d", id))
	}
	return eft, nil
}

func (e *eftStore) GetByReference(ctx context.Context, reference string) (*models.EFTTransaction, error) {
	row := e.s.q.QueryRowContext(ctx,
		`SELECT `+eftColumns+` FROM eft_transactions WHERE eft_reference = ?`, reference)
	eft, err := e.scan(row)
	if err != nil {
		return nil, mapErr(err, "eft", reference)
	}
	return eft, nil
}

func (e *eftStore) Update(ctx context.Context, eft *models.EFTTransaction) error {
	res, err := e.s.q.ExecContext(ctx, `
		UPDATE eft_transactions SET status = ?, batch_id = ?, batch_time = ?,
			estimated_completion = ?, actual_completion = ?, processed_by = ?,
			failure_reason = ?, modified_at = ?
		WHERE id = ?`,
		string(eft.Status), nullStr(eft.BatchID), fmtTimePtr(eft.BatchTime),
		fmtTimePtr(eft.EstimatedCompletion), fmtTimePtr(eft.ActualCompletion),
		nullStr(eft.ProcessedBy), nullStr(eft.FailureReason), fmtTime(nowUTC()), eft.ID)
	if err != nil {
		return fmt.Errorf("failed to update eft %d: %w", eft.ID, err)
	}
	return requireRow(res, "eft", eft.ID)
}

func (e *eftStore) ListForBatch(ctx context.Context) ([]*models.EFTTransaction, error) {
	rows, err := e.s.q.QueryContext(ctx, `
		SELECT `+eftColumns+` FROM eft_transactions
		WHERE eft_type = 'NEFT' AND status IN ('PENDING', 'QUEUED')
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch candidates: %w", err)
	}
	defer rows.Close()
	var efts []*models.EFTTransaction
	for rows.Next() {
		eft, err := e.scan(rows)
		if err != nil {
			return nil, err
		}
		efts = append(efts, eft)
	}
	return efts, rows.Err()
}

func (e *eftStore) ListByAccount(ctx context.Context, accountID int64, limit int) ([]*models.EFTTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := e.s.q.QueryContext(ctx, `
		SELECT `+eftColumns+` FROM eft_transactions
		WHERE source_account_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list efts for account %d: %w", accountID, err)
	}
	defer rows.Close()
	var efts []*models.EFTTransaction
	for rows.Next() {
		eft, err := e.scan(rows)
		if err != nil {
			return nil, err
		}
		efts = append(efts, eft)
	}
	return efts, rows.Err()
}

func (e *eftStore) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := e.s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM eft_transactions
		WHERE eft_type = 'NEFT' AND status IN ('PENDING', 'QUEUED')`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending efts: %w", err)
	}
	return n, nil
}

func (e *eftStore) CreateBatch(ctx context.Context, batch *models.EFTBatch) error {
	res, err := e.s.q.ExecContext(ctx, `
		INSERT INTO eft_batches (batch_id, eft_type, total, succeeded, failed, status, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		batch.BatchID, string(batch.EFTType), batch.Total, batch.Succeeded, batch.Failed,
		string(batch.Status), fmtTime(batch.StartedAt), fmtTimePtr(batch.CompletedAt))
	if err != nil {
		return mapErr(err, "batch", batch.BatchID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read batch id: %w", err)
	}
	batch.ID = id
	return nil
}

func (e *eftStore) GetBatch(ctx context.Context, batchID string) (*models.EFTBatch, error) {
	var batch models.EFTBatch
	var startedAt string
	var completedAt sql.NullString
	err := e.s.q.QueryRowContext(ctx, `
		SELECT id, batch_id, eft_type, total, succeeded, failed, status, started_at, completed_at
		FROM eft_batches WHERE batch_id = ?`, batchID).
		Scan(&batch.ID, &batch.BatchID, &batch.EFTType, &batch.Total, &batch.Succeeded,
			&batch.Failed, &batch.Status, &startedAt, &completedAt)
	if err != nil {
		return nil, mapErr(err, "batch", batchID)
	}
	batch.StartedAt = parseTime(startedAt)
	batch.CompletedAt = parseTimePtr(completedAt)
	return &batch, nil
}

func (e *eftStore) UpdateBatch(ctx context.Context, batch *models.EFTBatch) error {
	res, err := e.s.q.ExecContext(ctx, `
		UPDATE eft_batches SET total = ?, succeeded = ?, failed = ?, status = ?, completed_at = ?
		WHERE id = ?`,
		batch.Total, batch.Succeeded, batch.Failed, string(batch.Status),
		fmtTimePtr(batch.CompletedAt), batch.ID)
	if err != nil {
		return fmt.Errorf("failed to update batch %s: %w", batch.BatchID, err)
	}
	return requireRow(res, "batch", batch.ID)
}
