package tenancy

import (
	"encoding/json"

	"github.com/lalith-99/storefront/internal/models"
)

// GrantKind tells a stored membership row apart from one implied by the
// resolver.
type GrantKind int

const (
	GrantStored GrantKind = iota + 1
	GrantSynthesized
)

func (k GrantKind) String() string {
	switch k {
	case GrantStored:
		return "stored"
	case GrantSynthesized:
		return "synthesized"
	}
	return "unknown"
}

// Inheritance names why a synthesized grant exists.
type Inheritance string

const (
	InheritedPlatformAdmin Inheritance = "platform_admin"
	InheritedLegacyOwner   Inheritance = "legacy_owner"
)

// Grant is a principal's effective membership in one tenant: either
// Stored(row) or Synthesized(role) with the reason it was implied.
// Synthesized grants are never written back to storage.
type Grant struct {
	kind       GrantKind
	membership models.Membership
	via        Inheritance
}

func Stored(m models.Membership) Grant {
	return Grant{kind: GrantStored, membership: m}
}

func Synthesized(m models.Membership, via Inheritance) Grant {
	return Grant{kind: GrantSynthesized, membership: m, via: via}
}

func (g Grant) Kind() GrantKind { return g.kind }

func (g Grant) IsSynthesized() bool { return g.kind == GrantSynthesized }

func (g Grant) Role() models.Role { return g.membership.Role }

// Via is empty for stored grants.
func (g Grant) Via() Inheritance { return g.via }

// Membership returns the stored row, or the implied membership for a
// synthesized grant.
func (g Grant) Membership() models.Membership { return g.membership }

// StoredMembership returns the row only when one exists in storage.
func (g Grant) StoredMembership() (models.Membership, bool) {
	if g.kind != GrantStored {
		return models.Membership{}, false
	}
	return g.membership, true
}

func (g Grant) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		models.Membership
		Source string      `json:"source"`
		Via    Inheritance `json:"via,omitempty"`
	}{
		Membership: g.membership,
		Source:     g.kind.String(),
		Via:        g.via,
	})
}
