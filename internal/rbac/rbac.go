package rbac

import "github.com/devbounty/backend/internal/models"

// Role constants
const (
	RoleClient    = "client"
	RoleDeveloper = "developer"
	RoleAdmin     = "admin"
)

// Permission constants
const (
	PermCreateBounty   = "create_bounty"
	PermClaimBounty    = "claim_bounty"
	PermSubmitWork     = "submit_work"
	PermApproveBounty  = "approve_bounty"
	PermOpenDispute    = "open_dispute"
	PermResolveDispute = "resolve_dispute"
	PermListDisputes   = "list_disputes"
	PermReviewParty    = "review_party"
)

// RolePermissions defines what each role can do. Ownership of the specific
// bounty or claim is checked separately by the caller.
var RolePermissions = map[string][]string{
	RoleClient: {
		PermCreateBounty, PermApproveBounty, PermOpenDispute, PermReviewParty,
	},
	RoleDeveloper: {
		PermClaimBounty, PermSubmitWork, PermOpenDispute, PermReviewParty,
	},
	RoleAdmin: {
		PermApproveBounty, PermResolveDispute, PermListDisputes,
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// RolesOf lists the roles an actor holds.
func RolesOf(a models.Actor) []string {
	var roles []string
	if a.ClientProfileID != nil {
		roles = append(roles, RoleClient)
	}
	if a.DeveloperProfileID != nil {
		roles = append(roles, RoleDeveloper)
	}
	if a.IsAdmin {
		roles = append(roles, RoleAdmin)
	}
	return roles
}

// Can reports whether any of the actor's roles grants permission.
func Can(a models.Actor, permission string) bool {
	for _, role := range RolesOf(a) {
		if HasPermission(role, permission) {
			return true
		}
	}
	return false
}
