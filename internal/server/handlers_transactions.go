package server

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/corebank/internal/interfaces"
	"github.com/bobmcallan/corebank/internal/models"
)

// TransactionRequest is the POST /transactions payload. Type selects
// the operation: DEBIT and CREDIT act on account_number, TRANSFER moves
// between from_account and to_account.
type TransactionRequest struct {
	Type          string `json:"type"`
	AccountNumber string `json:"account_number,omitempty"`
	FromAccount   string `json:"from_account,omitempty"`
	ToAccount     string `json:"to_account,omitempty"`
	Amount        string `json:"amount"`
	Category      string `json:"category,omitempty"`
	Description   string `json:"description,omitempty"`
	HoldOnly      bool   `json:"hold_only,omitempty"`
}

// TransferResponse carries both legs of a paired transfer.
type TransferResponse struct {
	Debit  *models.Transaction `json:"debit"`
	Credit *models.Transaction `json:"credit"`
}

// parseAmount parses a decimal amount from its string form.
func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount '%s'", raw)
	}
	return amount, nil
}

// handleTransactionCreate handles POST /transactions.
func (s *Server) handleTransactionCreate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	var req TransactionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch models.TransactionType(strings.ToUpper(req.Type)) {
	case models.TxnDebit:
		txn, err := s.app.LedgerService.Debit(r.Context(), authz, interfaces.LedgerRequest{
			AccountNumber: req.AccountNumber,
			Amount:        amount,
			Category:      req.Category,
			Description:   req.Description,
			HoldOnly:      req.HoldOnly,
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, txn)
	case models.TxnCredit:
		txn, err := s.app.LedgerService.Credit(r.Context(), authz, interfaces.LedgerRequest{
			AccountNumber: req.AccountNumber,
			Amount:        amount,
			Category:      req.Category,
			Description:   req.Description,
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, txn)
	case models.TxnTransfer:
		debit, credit, err := s.app.LedgerService.Transfer(r.Context(), authz, req.FromAccount, req.ToAccount, amount, req.Description)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, TransferResponse{Debit: debit, Credit: credit})
	default:
		WriteError(w, http.StatusBadRequest, "type must be DEBIT, CREDIT or TRANSFER")
	}
}

// handleTransactionHistory handles GET /transactions/history/{accountNumber}
// with optional from, to, limit and offset query parameters.
func (s *Server) handleTransactionHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	accountNumber := PathParam(r, "/transactions/history/", "")
	if accountNumber == "" {
		WriteError(w, http.StatusBadRequest, "account number is required in path")
		return
	}

	q := models.JournalQuery{}
	query := r.URL.Query()
	if raw := query.Get("from"); raw != "" {
		t, err := parseQueryTime(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid 'from' timestamp")
			return
		}
		q.From = &t
	}
	if raw := query.Get("to"); raw != "" {
		t, err := parseQueryTime(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid 'to' timestamp")
			return
		}
		q.To = &t
	}
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteError(w, http.StatusBadRequest, "Invalid 'limit'")
			return
		}
		q.Limit = n
	}
	if raw := query.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteError(w, http.StatusBadRequest, "Invalid 'offset'")
			return
		}
		q.Offset = n
	}

	txns, err := s.app.LedgerService.History(r.Context(), authz, accountNumber, q)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"account_number": accountNumber,
		"transactions":   txns,
		"count":          len(txns),
	})
}

// parseQueryTime accepts RFC3339 or a bare date.
func parseQueryTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// handleBulkUpload handles POST /transactions/bulk-upload. The body is
// a CSV file with columns account_number,type,amount,description,category.
// A header row is recognised and skipped.
func (s *Server) handleBulkUpload(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}

	rows, err := parseBulkCSV(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(rows) == 0 {
		WriteError(w, http.StatusBadRequest, "no rows in upload")
		return
	}

	result, err := s.app.LedgerService.BulkUpload(r.Context(), authz, rows)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// parseBulkCSV reads the upload into rows, preserving source line
// numbers for error reporting.
func parseBulkCSV(body io.Reader) ([]models.BulkUploadRow, error) {
	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []models.BulkUploadRow
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed CSV at line %d: %v", line+1, err)
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "account_number") {
			continue
		}
		if len(record) < 3 {
			return nil, fmt.Errorf("line %d: expected at least account_number,type,amount", line)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(record[2]))
		if err != nil {
			// Carry the bad row through; the ledger reports it in the
			// result without aborting the batch.
			amount = decimal.Zero
		}
		row := models.BulkUploadRow{
			Line:          line,
			AccountNumber: strings.TrimSpace(record[0]),
			Type:          models.TransactionType(strings.ToUpper(strings.TrimSpace(record[1]))),
			Amount:        amount,
		}
		if len(record) > 3 {
			row.Description = strings.TrimSpace(record[3])
		}
		if len(record) > 4 {
			row.Category = strings.TrimSpace(record[4])
		}
		rows = append(rows, row)
	}
	return rows, nil
}
