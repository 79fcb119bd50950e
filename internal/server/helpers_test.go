package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/corebank/internal/models"
)

func TestStatusForCode(t *testing.T) {
	cases := []struct {
		code   models.ErrorCode
		status int
	}{
		{models.CodeUnauthenticated, http.StatusUnauthorized},
		{models.CodeForbidden, http.StatusForbidden},
		{models.CodeNotFound, http.StatusNotFound},
		{models.CodeValidation, http.StatusBadRequest},
		{models.CodeRTGSClosed, http.StatusBadRequest},
		{models.CodeRTGSBelowMin, http.StatusBadRequest},
		{models.CodeConflict, http.StatusConflict},
		{models.CodeInvalidUserState, http.StatusConflict},
		{models.CodeInvalidBeneficiaryState, http.StatusConflict},
		{models.CodeInvalidEFTState, http.StatusConflict},
		{models.CodeInsufficientFunds, http.StatusBadRequest},
		{models.CodeMinBalanceBreach, http.StatusBadRequest},
		{models.CodeAccountNotActive, http.StatusBadRequest},
		{models.CodeExternalFailure, http.StatusBadGateway},
		{models.CodeInternal, http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.status, statusForCode(c.code), string(c.code))
	}
}

func TestWriteDomainError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(rec, models.NewError(models.CodeInsufficientFunds, "available balance 50 below requested 100"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "INSUFFICIENT_FUNDS", body.Code)
	assert.Equal(t, "available balance 50 below requested 100", body.Error)
}

func TestWriteDomainErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(rec, errors.New("sql: database is locked"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal error", body.Error)
	assert.NotContains(t, body.Error, "sql")
}

func TestPathParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/approve-user/42", nil)
	assert.Equal(t, "42", PathParam(req, "/admin/approve-user/", ""))

	req = httptest.NewRequest(http.MethodGet, "/transactions/history/100000000001", nil)
	assert.Equal(t, "100000000001", PathParam(req, "/transactions/history/", ""))

	req = httptest.NewRequest(http.MethodGet, "/beneficiaries/7/approve", nil)
	assert.Equal(t, "7", PathParam(req, "/beneficiaries/", "/approve"))

	req = httptest.NewRequest(http.MethodGet, "/other/path", nil)
	assert.Empty(t, PathParam(req, "/admin/approve-user/", ""))
}

func TestRequireMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/transactions", nil)
	ok := RequireMethod(rec, req, http.MethodGet, http.MethodPost)

	assert.False(t, ok)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get("Allow"))
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	var v map[string]interface{}
	assert.False(t, DecodeJSON(rec, req, &v))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseQueryTime(t *testing.T) {
	ts, err := parseQueryTime("2025-06-02T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 10, ts.Hour())

	ts, err = parseQueryTime("2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, 2, ts.Day())

	_, err = parseQueryTime("yesterday")
	require.Error(t, err)
}

func TestParseBulkCSV(t *testing.T) {
	input := strings.NewReader(
		"account_number,type,amount,description,category\n" +
			"100000000001,CREDIT,500.00,Salary,SALARY\n" +
			"100000000002,DEBIT,120.50,Groceries\n" +
			"100000000003,CREDIT,not-a-number\n")

	rows, err := parseBulkCSV(input)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "100000000001", rows[0].AccountNumber)
	assert.Equal(t, models.TxnCredit, rows[0].Type)
	assert.Equal(t, "500", rows[0].Amount.String())
	assert.Equal(t, "Salary", rows[0].Description)
	assert.Equal(t, "SALARY", rows[0].Category)

	assert.Equal(t, models.TxnDebit, rows[1].Type)
	assert.Empty(t, rows[1].Category)

	// Bad amounts are carried through as zero for the ledger to report.
	assert.True(t, rows[2].Amount.IsZero())
}

func TestParseBulkCSVNoHeader(t *testing.T) {
	rows, err := parseBulkCSV(strings.NewReader("100000000001,CREDIT,500.00\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Line)
}

func TestParseBulkCSVShortRow(t *testing.T) {
	_, err := parseBulkCSV(strings.NewReader("100000000001,CREDIT\n"))
	require.Error(t, err)
}
