package authorization

import (
	"testing"

	"github.com/gavelhq/gavel/internal/identity/domain"
	"github.com/stretchr/testify/assert"
)

func TestCapabilities(t *testing.T) {
	buyer := domain.Identity{Role: domain.RoleBuyer}
	seller := domain.Identity{Role: domain.RoleSeller}
	admin := domain.Identity{Role: domain.RoleAdmin}
	unknown := domain.Identity{Role: "GUEST"}

	assert.True(t, CanBid(buyer))
	assert.True(t, CanBid(seller))
	assert.True(t, CanBid(admin))
	assert.False(t, CanBid(unknown))

	assert.False(t, CanCreateListing(buyer))
	assert.True(t, CanCreateListing(seller))
	assert.True(t, CanCreateListing(admin))

	assert.False(t, CanAdminister(buyer))
	assert.False(t, CanAdminister(seller))
	assert.True(t, CanAdminister(admin))
}
