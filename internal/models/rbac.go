package models

import "sort"

// Permission is a typed capability checked on every protected operation.
type Permission string

// Capabilities gating the API surface.
const (
	PermUserRead         Permission = "USER_READ"
	PermUserWrite        Permission = "USER_WRITE"
	PermCustomerRead     Permission = "CUSTOMER_READ"
	PermCustomerWrite    Permission = "CUSTOMER_WRITE"
	PermAccountRead      Permission = "ACCOUNT_READ"
	PermAccountWrite     Permission = "ACCOUNT_WRITE"
	PermTransactionRead  Permission = "TRANSACTION_READ"
	PermTransactionWrite Permission = "TRANSACTION_WRITE"
)

// AllPermissions lists every seeded permission with its description.
var AllPermissions = map[Permission]string{
	PermUserRead:         "Read user records and onboarding queues",
	PermUserWrite:        "Approve, reject and manage users",
	PermCustomerRead:     "Read customer profiles",
	PermCustomerWrite:    "Create and update customer profiles",
	PermAccountRead:      "Read any account",
	PermAccountWrite:     "Open, update and administer accounts",
	PermTransactionRead:  "Read any transaction journal",
	PermTransactionWrite: "Post ledger operations and process batches",
}

// Role names seeded at startup.
const (
	RoleSuperadmin = "SUPERADMIN"
	RoleAdmin      = "ADMIN"
	RoleAccountant = "ACCOUNTANT"
	RoleCustomer   = "CUSTOMER"
)

// RolePermissions is the seeded role-to-permission mapping. SUPERADMIN
// may later edit mappings for other roles; the seed is the baseline.
var RolePermissions = map[string][]Permission{
	RoleSuperadmin: {
		PermUserRead, PermUserWrite,
		PermCustomerRead, PermCustomerWrite,
		PermAccountRead, PermAccountWrite,
		PermTransactionRead, PermTransactionWrite,
	},
	RoleAdmin: {
		PermUserRead, PermUserWrite,
		PermCustomerRead, PermCustomerWrite,
		PermAccountRead, PermAccountWrite,
		PermTransactionRead,
	},
	RoleAccountant: {
		PermCustomerRead,
		PermAccountRead,
		PermTransactionRead, PermTransactionWrite,
	},
	RoleCustomer: {},
}

// PermissionSet is the materialized union of a user's role permissions.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from role names using the mapping table.
func NewPermissionSet(roles []string, rolePerms map[string][]Permission) PermissionSet {
	set := PermissionSet{}
	for _, role := range roles {
		for _, p := range rolePerms[role] {
			set[p] = struct{}{}
		}
	}
	return set
}

// Has reports whether the set contains the permission.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// List returns the permissions in stable sorted order.
func (s PermissionSet) List() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
