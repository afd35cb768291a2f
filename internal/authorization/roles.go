package authorization

import "github.com/gavelhq/gavel/internal/identity/domain"

// Capability predicates are pure functions of the authenticated identity.
// Per-resource guards (ownership, self-bidding) stay with the services that
// own the resource.

// CanBid reports whether the identity may place bids at all. Every
// authenticated role may bid; the evaluation engine separately rejects a
// seller bidding on their own listing.
func CanBid(id domain.Identity) bool {
	switch id.Role {
	case domain.RoleBuyer, domain.RoleSeller, domain.RoleAdmin:
		return true
	default:
		return false
	}
}

// CanCreateListing reports whether the identity may list artworks.
func CanCreateListing(id domain.Identity) bool {
	return id.Role == domain.RoleSeller || id.Role == domain.RoleAdmin
}

// CanAdminister reports whether the identity may run administrative
// operations (sweeps, user deletion, audit log access).
func CanAdminister(id domain.Identity) bool {
	return id.Role == domain.RoleAdmin
}
