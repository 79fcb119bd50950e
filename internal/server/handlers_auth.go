package server

import (
	"net/http"

	"github.com/bobmcallan/corebank/internal/interfaces"
)

// RegisterRequest is the POST /auth/register payload.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile,omitempty"`
	Password string `json:"password"`
}

// LoginRequest is the POST /auth/login payload. Identifier resolves as
// username, then email, then mobile.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// handleRegister handles POST /auth/register.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req RegisterRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	user, err := s.app.IdentityService.Register(r.Context(), interfaces.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Mobile:   req.Mobile,
		Password: req.Password,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, user)
}

// handleLogin handles POST /auth/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req LoginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Identifier == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "identifier and password are required")
		return
	}
	user, err := s.app.IdentityService.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	token, err := signJWT(user, s.app.Config)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign session token")
		WriteError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	WriteJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

// CustomerDetailsRequest is the POST /users/customer-details payload.
type CustomerDetailsRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Mobile       string `json:"mobile,omitempty"`
	NationalID   string `json:"national_id"`
	DateOfBirth  string `json:"date_of_birth,omitempty"`
	AddressLine1 string `json:"address_line1,omitempty"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Occupation   string `json:"occupation,omitempty"`
	AnnualIncome string `json:"annual_income,omitempty"`
}

// handleCustomerDetails handles POST /users/customer-details, the
// submit/resubmit step of onboarding.
func (s *Server) handleCustomerDetails(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	var req CustomerDetailsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	customer, err := s.app.IdentityService.SubmitCustomerDetails(r.Context(), authz, interfaces.CustomerDetailsRequest{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Mobile:       req.Mobile,
		NationalID:   req.NationalID,
		DateOfBirth:  req.DateOfBirth,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Occupation:   req.Occupation,
		AnnualIncome: req.AnnualIncome,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, customer)
}

// handleCurrentUser handles GET /users/me.
func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	authz := s.requireAuthz(w, r)
	if authz == nil {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":        authz.User,
		"permissions": authz.Permissions.List(),
	})
}
