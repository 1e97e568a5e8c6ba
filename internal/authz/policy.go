// Package authz implements role based authorization with a declarative
// policy table. Each operation names the roles allowed to perform it; the
// admin role is a wildcard that passes every check.
package authz

import (
	"errors"
	"strings"
)

// Role is a coarse permission grouping assigned to every user.
type Role string

const (
	// RoleAdmin bypasses all policy checks.
	RoleAdmin Role = "admin"
	// RoleManager approves budget proposals and manages users.
	RoleManager Role = "manager"
	// RoleBuyer runs the day-to-day purchasing flow.
	RoleBuyer Role = "buyer"
	// RoleStandard has read-only access to the fleet screens.
	RoleStandard Role = "standard"
)

// ErrForbidden indicates the caller's role is not in the operation's allowed set.
var ErrForbidden = errors.New("authz: forbidden")

// ErrUnknownOperation indicates a policy lookup for an undeclared operation.
var ErrUnknownOperation = errors.New("authz: unknown operation")

// ValidRole reports whether the value names a known role.
func ValidRole(value string) bool {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleAdmin, RoleManager, RoleBuyer, RoleStandard:
		return true
	}
	return false
}

// policies maps operation names to allowed roles. RoleAdmin is implicit
// everywhere and never listed.
var policies = map[string][]Role{
	"suppliers.view":   {RoleManager, RoleBuyer},
	"suppliers.manage": {RoleManager, RoleBuyer},

	"purchasing.quotation.view":   {RoleManager, RoleBuyer},
	"purchasing.quotation.create": {RoleManager, RoleBuyer},
	"purchasing.proposal.add":     {RoleManager, RoleBuyer},
	"purchasing.proposal.approve": {RoleManager},
	"purchasing.order.view":       {RoleManager, RoleBuyer},
	"purchasing.order.finalize":   {RoleManager, RoleBuyer},
	"purchasing.insights":         {RoleManager},

	"fleet.view":   {RoleManager, RoleBuyer, RoleStandard},
	"fleet.manage": {RoleManager, RoleBuyer, RoleStandard},
	"fleet.prices": {RoleManager},

	"users.manage": {RoleManager},
}

// Authorize checks whether role may perform the named operation.
func Authorize(role Role, operation string) error {
	if role == RoleAdmin {
		return nil
	}
	allowed, ok := policies[operation]
	if !ok {
		return ErrUnknownOperation
	}
	for _, candidate := range allowed {
		if candidate == role {
			return nil
		}
	}
	return ErrForbidden
}
