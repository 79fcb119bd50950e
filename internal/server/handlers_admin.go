package server

import (
	"net/http"
	"strconv"

	"github.com/bobmcallan/corebank/internal/models"
)

// handlePendingDetails handles GET /admin/pending-details, listing
// users who registered but have not submitted customer details.
func (s *Server) handlePendingDetails(w http.ResponseWriter, r *http.Request) {
	s.handleUserQueue(w, r, models.UserPendingDetails)
}

// handlePendingReview handles GET /admin/pending-review, listing users
// awaiting an approve/reject decision.
func (s *Server) handlePendingReview(w http.ResponseWriter, r *http.Request) {
	s.handleUserQueue(w, r, models.UserPendingReview)
}

func (s *Server) handleUserQueue(w http.ResponseWriter, r *http.Request, status models.UserStatus) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	users, err := s.app.IdentityService.ListUsersByStatus(r.Context(), authz, status)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": status,
		"users":  users,
		"count":  len(users),
	})
}

func parseUserID(w http.ResponseWriter, r *http.Request, prefix string) (int64, bool) {
	raw := PathParam(r, prefix, "")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid user id")
		return 0, false
	}
	return id, true
}

// handleApproveUser handles POST /admin/approve-user/{id}. Approval
// activates the customer profile and opens the first savings account.
func (s *Server) handleApproveUser(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	id, ok := parseUserID(w, r, "/admin/approve-user/")
	if !ok {
		return
	}
	user, err := s.app.IdentityService.ApproveUser(r.Context(), authz, id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// RejectUserRequest is the POST /admin/reject-user/{id} payload.
type RejectUserRequest struct {
	Reason string `json:"reason"`
}

// handleRejectUser handles POST /admin/reject-user/{id}.
func (s *Server) handleRejectUser(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	id, ok := parseUserID(w, r, "/admin/reject-user/")
	if !ok {
		return
	}
	var req RejectUserRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	user, err := s.app.IdentityService.RejectUser(r.Context(), authz, id, req.Reason)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// handleProcessBatch handles POST /admin/eft/process-batch, running one
// batch tick on demand. The scheduler drives the same code path.
func (s *Server) handleProcessBatch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	if !authz.Has(models.PermTransactionWrite) {
		WriteDomainError(w, models.ErrForbidden("TRANSACTION_WRITE permission required"))
		return
	}
	batch, err := s.app.EFTService.ProcessBatch(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if batch == nil {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "skipped"})
		return
	}
	WriteJSON(w, http.StatusOK, batch)
}

// handleBeneficiaryVerify handles POST /admin/eft/beneficiaries/{id}/{action}
// where action is approve, reject or block.
func (s *Server) handleBeneficiaryVerify(w http.ResponseWriter, r *http.Request, rawID, action string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid beneficiary id")
		return
	}

	var ben *models.Beneficiary
	switch action {
	case "approve":
		ben, err = s.app.BeneficiaryService.Approve(r.Context(), authz, id)
	case "reject":
		ben, err = s.app.BeneficiaryService.Reject(r.Context(), authz, id)
	case "block":
		ben, err = s.app.BeneficiaryService.Block(r.Context(), authz, id)
	default:
		WriteError(w, http.StatusBadRequest, "action must be approve, reject or block")
		return
	}
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ben)
}
