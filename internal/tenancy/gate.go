package tenancy

import "github.com/lalith-99/storefront/internal/models"

// These gates are advisory: handlers check them before offering or
// running an action, and the store's own access policy still applies.

// CanManageTeam is true for platform admins and for owners or admins of
// the tenant the grant belongs to. A nil grant means no membership.
func CanManageTeam(isPlatformAdmin bool, grant *Grant) bool {
	if isPlatformAdmin {
		return true
	}
	if grant == nil {
		return false
	}
	switch grant.Role() {
	case models.RoleOwner, models.RoleAdmin:
		return true
	}
	return false
}

// CanOnboard reports whether the principal may create a brand-new tenant.
// Only platform admins can.
func CanOnboard(isPlatformAdmin bool) bool {
	return isPlatformAdmin
}
