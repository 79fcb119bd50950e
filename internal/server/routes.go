package server

import (
	"net/http"
	"strings"

	"github.com/bobmcallan/corebank/internal/models"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleHealthDetailed)
	mux.HandleFunc("/version", s.handleVersion)

	// Auth and onboarding
	mux.HandleFunc("/auth/register", s.handleRegister)
	mux.HandleFunc("/auth/login", s.handleLogin)
	mux.HandleFunc("/users/customer-details", s.handleCustomerDetails)
	mux.HandleFunc("/users/me", s.handleCurrentUser)

	// Accounts and customers
	mux.HandleFunc("/accounts", s.handleAccountList)
	mux.HandleFunc("/customers/", s.handleCustomerGet)

	// Ledger
	mux.HandleFunc("/transactions", s.handleTransactionCreate)
	mux.HandleFunc("/transactions/history/", s.handleTransactionHistory)
	mux.HandleFunc("/transactions/bulk-upload", s.handleBulkUpload)

	// In-network payments
	mux.HandleFunc("/transfers/send", s.handleTransferSend)
	mux.HandleFunc("/qr/create", s.handleQRCreate)
	mux.HandleFunc("/qr/", s.routeQR)
	mux.HandleFunc("/upi/register", s.handleUPIRegister)
	mux.HandleFunc("/upi/pay", s.handleUPIPay)
	mux.HandleFunc("/upi/", s.handleUPIDeactivate)
	mux.HandleFunc("/upi", s.handleUPIList)

	// EFT
	mux.HandleFunc("/eft/beneficiaries/", s.routeBeneficiary)
	mux.HandleFunc("/eft/beneficiaries", s.handleBeneficiaryRoot)
	mux.HandleFunc("/eft/transfer/initiate", s.handleNEFTSubmit)
	mux.HandleFunc("/eft/rtgs/transfer", s.handleRTGSSubmit)
	mux.HandleFunc("/eft/neft/status/", s.handleEFTStatus)
	mux.HandleFunc("/eft/rtgs/status/", s.handleEFTStatus)

	// Admin
	mux.HandleFunc("/admin/pending-details", s.handlePendingDetails)
	mux.HandleFunc("/admin/pending-review", s.handlePendingReview)
	mux.HandleFunc("/admin/approve-user/", s.handleApproveUser)
	mux.HandleFunc("/admin/reject-user/", s.handleRejectUser)
	mux.HandleFunc("/admin/eft/process-batch", s.handleProcessBatch)
	mux.HandleFunc("/admin/eft/beneficiaries/", s.routeBeneficiaryAdmin)
}

// requireAuthz returns the caller's authorization context or writes 401.
func (s *Server) requireAuthz(w http.ResponseWriter, r *http.Request) *models.AuthzContext {
	authz := authzFrom(r.Context())
	if authz == nil {
		writeBearerChallenge(w, "authentication required")
		return nil
	}
	return authz
}

// routeQR dispatches /qr/{requestID} and /qr/{requestID}/pay.
func (s *Server) routeQR(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/qr/")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "request id is required in path")
		return
	}
	if strings.HasSuffix(path, "/pay") {
		s.handleQRPay(w, r, strings.TrimSuffix(path, "/pay"))
		return
	}
	s.handleQRGet(w, r, path)
}

// routeBeneficiary dispatches /eft/beneficiaries/{id} by method.
func (s *Server) routeBeneficiary(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/eft/beneficiaries/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusBadRequest, "beneficiary id is required in path")
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.handleBeneficiaryGet(w, r, id)
	case http.MethodPut:
		s.handleBeneficiaryUpdate(w, r, id)
	case http.MethodDelete:
		s.handleBeneficiaryDelete(w, r, id)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// handleBeneficiaryRoot dispatches /eft/beneficiaries by method.
func (s *Server) handleBeneficiaryRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleBeneficiaryList(w, r)
	case http.MethodPost:
		s.handleBeneficiaryAdd(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// routeBeneficiaryAdmin dispatches /admin/eft/beneficiaries/{id}/{action}.
func (s *Server) routeBeneficiaryAdmin(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/admin/eft/beneficiaries/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		WriteError(w, http.StatusBadRequest, "expected /admin/eft/beneficiaries/{id}/{action}")
		return
	}
	s.handleBeneficiaryVerify(w, r, parts[0], parts[1])
}
