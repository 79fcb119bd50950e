package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/corebank/internal/interfaces"
)

// TransferSendRequest is the POST /transfers/send payload.
type TransferSendRequest struct {
	FromAccount string `json:"from_account"`
	ToAccount   string `json:"to_account"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

// handleTransferSend handles POST /transfers/send, an in-network
// transfer between the caller's account and any other account.
func (s *Server) handleTransferSend(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	var req TransferSendRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	debit, credit, err := s.app.PaymentService.Send(r.Context(), authz, req.FromAccount, req.ToAccount, amount, req.Description)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, TransferResponse{Debit: debit, Credit: credit})
}

// QRCreateRequest is the POST /qr/create payload.
type QRCreateRequest struct {
	AccountNumber string `json:"account_number"`
	Amount        string `json:"amount"`
	Description   string `json:"description,omitempty"`
	// ExpiresInSeconds overrides the default expiry window.
	ExpiresInSeconds int `json:"expires_in_seconds,omitempty"`
}

// handleQRCreate handles POST /qr/create.
func (s *Server) handleQRCreate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	var req QRCreateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	request, err := s.app.PaymentService.CreateQRRequest(r.Context(), authz, interfaces.QRCreateRequest{
		ReceiverAccountNumber: req.AccountNumber,
		Amount:                amount,
		Description:           req.Description,
		ExpiresIn:             time.Duration(req.ExpiresInSeconds) * time.Second,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, request)
}

// QRPayRequest is the POST /qr/{requestID}/pay payload.
type QRPayRequest struct {
	AccountNumber string `json:"account_number"`
}

// handleQRPay handles POST /qr/{requestID}/pay.
func (s *Server) handleQRPay(w http.ResponseWriter, r *http.Request, requestID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	var req QRPayRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	request, err := s.app.PaymentService.PayQRRequest(r.Context(), authz, requestID, req.AccountNumber)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, request)
}

// handleQRGet handles GET /qr/{requestID}.
func (s *Server) handleQRGet(w http.ResponseWriter, r *http.Request, requestID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	request, err := s.app.PaymentService.GetQRRequest(r.Context(), authz, requestID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, request)
}

// UPIRegisterRequest is the POST /upi/register payload.
type UPIRegisterRequest struct {
	UPIID         string `json:"upi_id"`
	AccountNumber string `json:"account_number"`
}

// handleUPIRegister handles POST /upi/register.
func (s *Server) handleUPIRegister(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	var req UPIRegisterRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	addr, err := s.app.PaymentService.RegisterUPI(r.Context(), authz, req.UPIID, req.AccountNumber)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, addr)
}

// UPIPayRequest is the POST /upi/pay payload.
type UPIPayRequest struct {
	UPIID         string `json:"upi_id"`
	AccountNumber string `json:"account_number"`
	Amount        string `json:"amount"`
	Description   string `json:"description,omitempty"`
}

// handleUPIPay handles POST /upi/pay.
func (s *Server) handleUPIPay(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	var req UPIPayRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	debit, credit, err := s.app.PaymentService.PayToUPI(r.Context(), authz, req.UPIID, req.AccountNumber, amount, req.Description)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, TransferResponse{Debit: debit, Credit: credit})
}

// handleUPIDeactivate handles DELETE /upi/{upiID}.
func (s *Server) handleUPIDeactivate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	upiID := strings.TrimPrefix(r.URL.Path, "/upi/")
	if upiID == "" {
		WriteError(w, http.StatusBadRequest, "UPI id is required in path")
		return
	}
	if err := s.app.PaymentService.DeactivateUPI(r.Context(), authz, upiID); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deactivated", "upi_id": upiID})
}

// handleUPIList handles GET /upi, returning the caller's aliases.
func (s *Server) handleUPIList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	addrs, err := s.app.PaymentService.ListUPI(r.Context(), authz)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"upi_addresses": addrs,
		"count":         len(addrs),
	})
}
