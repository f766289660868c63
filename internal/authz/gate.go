// Package authz decides per-request access from decoded token claims and a
// declared requirement. It is a pure function over its inputs; the HTTP
// adapters live in internal/middleware/auth.
package authz

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/hunterdex/armory/internal/tokens"
)

type kind int

const (
	kindPermission kind = iota
	kindRole
	kindOwner
)

type Requirement struct {
	kind        kind
	permissions []string
	roles       []string
	ownerID     uint
}

// AnyPermission allows principals holding at least one of perms.
func AnyPermission(perms ...string) Requirement {
	return Requirement{kind: kindPermission, permissions: perms}
}

// AnyRole allows principals whose role name is one of roles.
func AnyRole(roles ...string) Requirement {
	return Requirement{kind: kindRole, roles: roles}
}

// OwnResourceOrAdmin allows the owner of the resource or an admin.
func OwnResourceOrAdmin(ownerID uint) Requirement {
	return Requirement{kind: kindOwner, ownerID: ownerID}
}

// Decision always carries a reason and the required-vs-actual sets on
// deny; a silent failure is never produced.
type Decision struct {
	Allowed  bool
	Reason   string
	Required []string
	Actual   []string
}

func allow() Decision { return Decision{Allowed: true} }

func Evaluate(claims *tokens.AccessClaims, req Requirement) Decision {
	if claims == nil {
		return Decision{Reason: "no claims"}
	}
	if slices.Contains(claims.Permissions, PermAdmin) {
		return allow()
	}

	switch req.kind {
	case kindPermission:
		for _, p := range req.permissions {
			if slices.Contains(claims.Permissions, p) {
				return allow()
			}
		}
		return Decision{
			Reason:   "missing permission",
			Required: req.permissions,
			Actual:   claims.Permissions,
		}
	case kindRole:
		if slices.Contains(req.roles, claims.Role) {
			return allow()
		}
		return Decision{
			Reason:   "missing role",
			Required: req.roles,
			Actual:   []string{claims.Role},
		}
	case kindOwner:
		if claims.UserID == req.ownerID {
			return allow()
		}
		return Decision{
			Reason:   fmt.Sprintf("not own resource: owner %d, requester %d", req.ownerID, claims.UserID),
			Required: []string{strconv.FormatUint(uint64(req.ownerID), 10)},
			Actual:   []string{strconv.FormatUint(uint64(claims.UserID), 10)},
		}
	}
	return Decision{Reason: "unknown requirement"}
}
