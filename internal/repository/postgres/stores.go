package postgres

import "github.com/lalith-99/storefront/internal/repository"

var (
	_ repository.PrincipalRepository  = (*PrincipalStore)(nil)
	_ repository.ProfileRepository    = (*ProfileStore)(nil)
	_ repository.TenantRepository     = (*TenantStore)(nil)
	_ repository.MembershipRepository = (*MembershipStore)(nil)
	_ repository.ProductRepository    = (*ProductStore)(nil)
	_ repository.LeadRepository       = (*LeadStore)(nil)
)
