package server

import (
	"net/http"
	"strconv"
)

// handleAccountList handles GET /accounts, returning the caller's own
// accounts.
func (s *Server) handleAccountList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	accounts, err := s.app.IdentityService.ListAccounts(r.Context(), authz)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// handleCustomerGet handles GET /customers/{id}.
func (s *Server) handleCustomerGet(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	raw := PathParam(r, "/customers/", "")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid customer id")
		return
	}
	customer, err := s.app.IdentityService.GetCustomer(r.Context(), authz, id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, customer)
}
