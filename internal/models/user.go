package models

import "time"

// UserStatus is the onboarding state of a user account.
type UserStatus string

const (
	UserPendingDetails UserStatus = "PENDING_DETAILS"
	UserPendingReview  UserStatus = "PENDING_REVIEW"
	UserActive         UserStatus = "ACTIVE"
	UserRejected       UserStatus = "REJECTED"
	UserSuspended      UserStatus = "SUSPENDED"
)

// userTransitions is the closed set of legal status edges.
var userTransitions = map[UserStatus][]UserStatus{
	UserPendingDetails: {UserPendingReview},
	UserPendingReview:  {UserActive, UserRejected},
	UserRejected:       {UserPendingReview},
	UserActive:         {UserSuspended},
	UserSuspended:      {UserActive},
}

// CanTransitionTo reports whether the status edge is legal.
func (s UserStatus) CanTransitionTo(next UserStatus) bool {
	for _, t := range userTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// User is an authentication principal. Customers get one at
// registration; staff users are seeded or created by admins.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Mobile       string     `json:"mobile,omitempty"`
	PasswordHash string     `json:"-"`
	Status       UserStatus `json:"status"`
	CustomerID   *int64     `json:"customer_id,omitempty"`
	Roles        []string   `json:"roles"`
	CreatedAt    time.Time  `json:"created_at"`
	ModifiedAt   time.Time  `json:"modified_at"`
}

// AuthzContext is the materialized authorization context built once per
// request. Roles and permissions are loaded eagerly; services never
// navigate back to storage for authorization state.
type AuthzContext struct {
	User        *User
	Permissions PermissionSet
}

// Has reports whether the caller holds the capability.
func (a *AuthzContext) Has(p Permission) bool {
	return a != nil && a.Permissions.Has(p)
}

// CustomerID returns the linked customer id, or 0 for staff users with
// no customer profile.
func (a *AuthzContext) CustomerID() int64 {
	if a == nil || a.User == nil || a.User.CustomerID == nil {
		return 0
	}
	return *a.User.CustomerID
}

// OwnsCustomer reports whether the caller is the given customer.
func (a *AuthzContext) OwnsCustomer(customerID int64) bool {
	return customerID != 0 && a.CustomerID() == customerID
}
