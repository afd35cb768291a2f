package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gavelhq/gavel/internal/artwork/domain"
	artworkrepo "github.com/gavelhq/gavel/internal/artwork/repository"
	artworkservice "github.com/gavelhq/gavel/internal/artwork/service"
	biddingdomain "github.com/gavelhq/gavel/internal/bidding/domain"
	identitydomain "github.com/gavelhq/gavel/internal/identity/domain"
	"github.com/gavelhq/gavel/internal/migration"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newFixture(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:artdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.Run(db, zap.NewNop()))

	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	svc := artworkservice.NewService(artworkservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  artworkrepo.Provide(),
	})
	return svc, db, node
}

func identityOf(node *snowflake.Node, role identitydomain.Role) identitydomain.Identity {
	return identitydomain.Identity{
		UserID:  node.Generate(),
		Subject: "auth0|test",
		Role:    role,
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _, node := newFixture(t)
	seller := identityOf(node, identitydomain.RoleSeller)

	_, err := svc.Create(context.Background(), seller, domain.CreateArtworkRequest{
		Title:           "   ",
		SecretThreshold: 100.0,
	})
	require.ErrorIs(t, err, domain.ErrInvalidTitle)

	_, err = svc.Create(context.Background(), seller, domain.CreateArtworkRequest{
		Title:           "Still Life",
		SecretThreshold: 0,
	})
	require.ErrorIs(t, err, domain.ErrInvalidThreshold)

	past := time.Now().UTC().Add(-time.Hour)
	_, err = svc.Create(context.Background(), seller, domain.CreateArtworkRequest{
		Title:           "Still Life",
		SecretThreshold: 100.0,
		EndDate:         &past,
	})
	require.ErrorIs(t, err, domain.ErrInvalidEndDate)
}

func TestCreateRequiresSellerRole(t *testing.T) {
	svc, _, node := newFixture(t)
	buyer := identityOf(node, identitydomain.RoleBuyer)

	_, err := svc.Create(context.Background(), buyer, domain.CreateArtworkRequest{
		Title:           "Still Life",
		SecretThreshold: 100.0,
	})
	require.ErrorIs(t, err, domain.ErrNotOwner)
}

func TestCreateStartsActive(t *testing.T) {
	svc, _, node := newFixture(t)
	seller := identityOf(node, identitydomain.RoleSeller)

	artwork, err := svc.Create(context.Background(), seller, domain.CreateArtworkRequest{
		Title:           "  Harbor at Dusk  ",
		SecretThreshold: 250.0,
	})
	require.NoError(t, err)
	require.Equal(t, "Harbor at Dusk", artwork.Title)
	require.Equal(t, domain.StatusActive, artwork.Status)
	require.Zero(t, artwork.CurrentHighestBid)
}

func TestDeleteOwnerOnly(t *testing.T) {
	svc, _, node := newFixture(t)
	seller := identityOf(node, identitydomain.RoleSeller)
	other := identityOf(node, identitydomain.RoleSeller)
	admin := identityOf(node, identitydomain.RoleAdmin)

	artwork, err := svc.Create(context.Background(), seller, domain.CreateArtworkRequest{
		Title:           "Spring",
		SecretThreshold: 100.0,
	})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(context.Background(), other, artwork.ID), domain.ErrNotOwner)
	require.NoError(t, svc.Delete(context.Background(), seller, artwork.ID))

	// Admins may delete listings they do not own.
	artwork, err = svc.Create(context.Background(), seller, domain.CreateArtworkRequest{
		Title:           "Summer",
		SecretThreshold: 100.0,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), admin, artwork.ID))
}

func TestDeleteRefusedWithWinningBid(t *testing.T) {
	svc, db, node := newFixture(t)
	seller := identityOf(node, identitydomain.RoleSeller)

	artwork, err := svc.Create(context.Background(), seller, domain.CreateArtworkRequest{
		Title:           "Autumn",
		SecretThreshold: 100.0,
	})
	require.NoError(t, err)

	bid := biddingdomain.Bid{
		ID:        node.Generate(),
		ArtworkID: artwork.ID,
		BidderID:  node.Generate(),
		Amount:    150.0,
		IsWinning: true,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&bid).Error)

	require.ErrorIs(t, svc.Delete(context.Background(), seller, artwork.ID), domain.ErrHasWinningBid)
}

func TestDeleteRemovesStandingBids(t *testing.T) {
	svc, db, node := newFixture(t)
	seller := identityOf(node, identitydomain.RoleSeller)

	artwork, err := svc.Create(context.Background(), seller, domain.CreateArtworkRequest{
		Title:           "Winter",
		SecretThreshold: 1000.0,
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		bid := biddingdomain.Bid{
			ID:        node.Generate(),
			ArtworkID: artwork.ID,
			BidderID:  node.Generate(),
			Amount:    float64(10 * (i + 1)),
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, db.Create(&bid).Error)
	}

	require.NoError(t, svc.Delete(context.Background(), seller, artwork.ID))

	var count int64
	require.NoError(t, db.Table("bids").Count(&count).Error)
	require.Zero(t, count)

	_, err = svc.GetByID(context.Background(), artwork.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListFilters(t *testing.T) {
	svc, _, node := newFixture(t)
	seller := identityOf(node, identitydomain.RoleSeller)

	for _, category := range []string{"painting", "painting", "sculpture"} {
		_, err := svc.Create(context.Background(), seller, domain.CreateArtworkRequest{
			Title:           "Piece",
			Category:        category,
			SecretThreshold: 100.0,
		})
		require.NoError(t, err)
	}

	paintings, err := svc.List(context.Background(), domain.ListArtworkRequest{Category: "painting"})
	require.NoError(t, err)
	require.Len(t, paintings, 2)

	mine, err := svc.List(context.Background(), domain.ListArtworkRequest{SellerID: seller.UserID})
	require.NoError(t, err)
	require.Len(t, mine, 3)

	active, err := svc.List(context.Background(), domain.ListArtworkRequest{Status: "active"})
	require.NoError(t, err)
	require.Len(t, active, 3)
}
