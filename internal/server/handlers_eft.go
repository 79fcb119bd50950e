package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bobmcallan/corebank/internal/interfaces"
)

// BeneficiaryRequest is the add/update payload for external payees.
type BeneficiaryRequest struct {
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
	IFSCCode      string `json:"ifsc_code"`
	BankName      string `json:"bank_name,omitempty"`
	Email         string `json:"email,omitempty"`
	Mobile        string `json:"mobile,omitempty"`
}

func (b BeneficiaryRequest) toService() interfaces.BeneficiaryRequest {
	return interfaces.BeneficiaryRequest{
		Name:          b.Name,
		AccountNumber: b.AccountNumber,
		IFSCCode:      b.IFSCCode,
		BankName:      b.BankName,
		Email:         b.Email,
		Mobile:        b.Mobile,
	}
}

// handleBeneficiaryAdd handles POST /eft/beneficiaries.
func (s *Server) handleBeneficiaryAdd(w http.ResponseWriter, r *http.Request) {
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	var req BeneficiaryRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	ben, err := s.app.BeneficiaryService.Add(r.Context(), authz, req.toService())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, ben)
}

// handleBeneficiaryList handles GET /eft/beneficiaries.
func (s *Server) handleBeneficiaryList(w http.ResponseWriter, r *http.Request) {
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	bens, err := s.app.BeneficiaryService.List(r.Context(), authz)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"beneficiaries": bens,
		"count":         len(bens),
	})
}

func parseBeneficiaryID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid beneficiary id")
		return 0, false
	}
	return id, true
}

// handleBeneficiaryGet handles GET /eft/beneficiaries/{id}.
func (s *Server) handleBeneficiaryGet(w http.ResponseWriter, r *http.Request, raw string) {
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	id, ok := parseBeneficiaryID(w, raw)
	if !ok {
		return
	}
	ben, err := s.app.BeneficiaryService.Get(r.Context(), authz, id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ben)
}

// handleBeneficiaryUpdate handles PUT /eft/beneficiaries/{id}.
func (s *Server) handleBeneficiaryUpdate(w http.ResponseWriter, r *http.Request, raw string) {
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	id, ok := parseBeneficiaryID(w, raw)
	if !ok {
		return
	}
	var req BeneficiaryRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	ben, err := s.app.BeneficiaryService.Update(r.Context(), authz, id, req.toService())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ben)
}

// handleBeneficiaryDelete handles DELETE /eft/beneficiaries/{id}.
func (s *Server) handleBeneficiaryDelete(w http.ResponseWriter, r *http.Request, raw string) {
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	id, ok := parseBeneficiaryID(w, raw)
	if !ok {
		return
	}
	if err := s.app.BeneficiaryService.Delete(r.Context(), authz, id); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "deleted", "id": id})
}

// EFTSubmitRequest is the NEFT/RTGS submission payload.
type EFTSubmitRequest struct {
	SourceAccountNumber string `json:"source_account_number"`
	BeneficiaryID       int64  `json:"beneficiary_id"`
	Amount              string `json:"amount"`
	Remarks             string `json:"remarks,omitempty"`
}

func (s *Server) decodeEFTSubmit(w http.ResponseWriter, r *http.Request) (interfaces.EFTSubmitRequest, bool) {
	var req EFTSubmitRequest
	if !DecodeJSON(w, r, &req) {
		return interfaces.EFTSubmitRequest{}, false
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return interfaces.EFTSubmitRequest{}, false
	}
	return interfaces.EFTSubmitRequest{
		SourceAccountNumber: req.SourceAccountNumber,
		BeneficiaryID:       req.BeneficiaryID,
		Amount:              amount,
		Remarks:             req.Remarks,
	}, true
}

// handleNEFTSubmit handles POST /eft/transfer/initiate. Submission is
// accepted immediately; settlement happens at the scheduled batch.
func (s *Server) handleNEFTSubmit(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	req, ok := s.decodeEFTSubmit(w, r)
	if !ok {
		return
	}
	eft, err := s.app.EFTService.SubmitNEFT(r.Context(), authz, req)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, eft)
}

// handleRTGSSubmit handles POST /eft/rtgs/transfer. Settlement is
// attempted inline, so the response carries the terminal status.
func (s *Server) handleRTGSSubmit(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	req, ok := s.decodeEFTSubmit(w, r)
	if !ok {
		return
	}
	eft, err := s.app.EFTService.SubmitRTGS(r.Context(), authz, req)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, eft)
}

// handleEFTStatus handles GET /eft/neft/status/{reference} and
// GET /eft/rtgs/status/{reference}.
func (s *Server) handleEFTStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	reference := parts[len(parts)-1]
	if reference == "" || reference == "status" {
		WriteError(w, http.StatusBadRequest, "transfer reference is required in path")
		return
	}
	eft, err := s.app.EFTService.GetStatus(r.Context(), authz, reference)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, eft)
}
