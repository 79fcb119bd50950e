package models

import "time"

// CustomerStatus mirrors the owning user's review state.
type CustomerStatus string

const (
	CustomerPendingReview CustomerStatus = "PENDING_REVIEW"
	CustomerActive        CustomerStatus = "ACTIVE"
	CustomerRejected      CustomerStatus = "REJECTED"
)

var customerTransitions = map[CustomerStatus][]CustomerStatus{
	CustomerPendingReview: {CustomerActive, CustomerRejected},
	CustomerRejected:      {CustomerPendingReview},
}

// CanTransitionTo reports whether the status edge is legal.
func (s CustomerStatus) CanTransitionTo(next CustomerStatus) bool {
	for _, t := range customerTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// CustomerInfo is the typed supplementary record persisted alongside a
// customer. It replaces the free-form JSON blob the onboarding flow
// used to carry: the rejection reason lives here between a reject and
// the next resubmission.
type CustomerInfo struct {
	RejectionReason string `json:"rejection_reason,omitempty"`
	RejectedBy      string `json:"rejected_by,omitempty"`
	RejectedAt      string `json:"rejected_at,omitempty"`
	Occupation      string `json:"occupation,omitempty"`
	AnnualIncome    string `json:"annual_income,omitempty"`
}

// Customer is the KYC profile owning zero or more accounts.
type Customer struct {
	ID             int64          `json:"id"`
	CustomerNumber string         `json:"customer_number"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Email          string         `json:"email"`
	Mobile         string         `json:"mobile"`
	NationalID     string         `json:"national_id"`
	DateOfBirth    string         `json:"date_of_birth,omitempty"`
	AddressLine1   string         `json:"address_line1"`
	AddressLine2   string         `json:"address_line2,omitempty"`
	City           string         `json:"city"`
	State          string         `json:"state"`
	PostalCode     string         `json:"postal_code"`
	Status         CustomerStatus `json:"status"`
	OtherInfo      CustomerInfo   `json:"other_info"`
	CreatedAt      time.Time      `json:"created_at"`
	ModifiedAt     time.Time      `json:"modified_at"`
}
