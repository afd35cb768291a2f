package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	artworkdomain "github.com/gavelhq/gavel/internal/artwork/domain"
	auditrepo "github.com/gavelhq/gavel/internal/audit/repository"
	auditservice "github.com/gavelhq/gavel/internal/audit/service"
	biddingdomain "github.com/gavelhq/gavel/internal/bidding/domain"
	biddingrepo "github.com/gavelhq/gavel/internal/bidding/repository"
	biddingservice "github.com/gavelhq/gavel/internal/bidding/service"
	"github.com/gavelhq/gavel/internal/events"
	identitydomain "github.com/gavelhq/gavel/internal/identity/domain"
	"github.com/gavelhq/gavel/internal/liveevents"
	paymentdomain "github.com/gavelhq/gavel/internal/payment/domain"
	paymentprovider "github.com/gavelhq/gavel/internal/payment/provider"
	paymentrepo "github.com/gavelhq/gavel/internal/payment/repository"
	paymentservice "github.com/gavelhq/gavel/internal/payment/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	svc     paymentdomain.Service
	bidding biddingdomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:paydb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{
		`CREATE TABLE users (
			id BIGINT PRIMARY KEY,
			subject TEXT NOT NULL UNIQUE,
			role TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE artworks (
			id BIGINT PRIMARY KEY,
			seller_id BIGINT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT,
			category TEXT,
			description TEXT,
			image_url TEXT,
			secret_threshold REAL NOT NULL,
			current_highest_bid REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'ACTIVE',
			end_date TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE bids (
			id BIGINT PRIMARY KEY,
			artwork_id BIGINT NOT NULL,
			bidder_id BIGINT NOT NULL,
			amount REAL NOT NULL,
			is_winning BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE payments (
			id BIGINT PRIMARY KEY,
			artwork_id BIGINT NOT NULL,
			bid_id BIGINT NOT NULL,
			payer_id BIGINT NOT NULL,
			amount REAL NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD',
			status TEXT NOT NULL DEFAULT 'PENDING',
			provider_reference TEXT NOT NULL UNIQUE,
			charge_reference TEXT,
			failure_reason TEXT,
			metadata TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE audit_logs (
			id BIGINT PRIMARY KEY,
			user_id BIGINT,
			action TEXT NOT NULL,
			resource_type TEXT NOT NULL,
			resource_id BIGINT,
			details TEXT,
			ip_address TEXT,
			user_agent TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepo.Provide(),
	})
	dispatcher := events.NewDispatcher(events.Params{
		Log:      zap.NewNop(),
		AuditSvc: auditSvc,
		Hub:      liveevents.NewHub(),
	})

	svc := paymentservice.NewService(paymentservice.Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Repo:       paymentrepo.Provide(),
		Provider:   paymentprovider.NewLocal(),
		Dispatcher: dispatcher,
	})
	bidding := biddingservice.NewService(biddingservice.Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Repo:       biddingrepo.Provide(),
		Dispatcher: dispatcher,
	})
	return &fixture{db: db, node: node, svc: svc, bidding: bidding}
}

func (f *fixture) seedUser(t *testing.T, role identitydomain.Role) identitydomain.Identity {
	t.Helper()

	user := identitydomain.User{
		ID:        f.node.Generate(),
		Subject:   fmt.Sprintf("auth0|%s", f.node.Generate()),
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(&user).Error)
	return identitydomain.Identity{UserID: user.ID, Subject: user.Subject, Role: user.Role}
}

// seedWin places a threshold-meeting bid so the artwork sits in
// PENDING_PAYMENT with a winning bid, then opens the intent.
func (f *fixture) seedWin(t *testing.T) (identitydomain.Identity, snowflake.ID, *paymentdomain.Intent) {
	t.Helper()

	seller := f.seedUser(t, identitydomain.RoleSeller)
	buyer := f.seedUser(t, identitydomain.RoleBuyer)

	artwork := artworkdomain.Artwork{
		ID:              f.node.Generate(),
		SellerID:        seller.UserID,
		Title:           "Nocturne",
		SecretThreshold: 100.0,
		Status:          artworkdomain.StatusActive,
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(&artwork).Error)

	_, err := f.bidding.Place(context.Background(), buyer, biddingdomain.PlaceBidRequest{
		ArtworkID: artwork.ID,
		Amount:    120.0,
	})
	require.NoError(t, err)

	intent, err := f.svc.CreateIntent(context.Background(), buyer, artwork.ID)
	require.NoError(t, err)
	require.NotEmpty(t, intent.Payment.ProviderReference)
	require.NotEmpty(t, intent.ClientSecret)
	return buyer, artwork.ID, intent
}

func (f *fixture) artwork(t *testing.T, id snowflake.ID) artworkdomain.Artwork {
	t.Helper()

	var artwork artworkdomain.Artwork
	require.NoError(t, f.db.Where("id = ?", id).First(&artwork).Error)
	return artwork
}

func TestCreateIntentRequiresWinner(t *testing.T) {
	f := newFixture(t)
	buyer, artworkID, _ := f.seedWin(t)
	stranger := f.seedUser(t, identitydomain.RoleBuyer)

	_, err := f.svc.CreateIntent(context.Background(), stranger, artworkID)
	require.ErrorIs(t, err, paymentdomain.ErrNotAwaitingPayer)

	// The winner retrying gets the same open intent back.
	first, err := f.svc.CreateIntent(context.Background(), buyer, artworkID)
	require.NoError(t, err)
	second, err := f.svc.CreateIntent(context.Background(), buyer, artworkID)
	require.NoError(t, err)
	require.Equal(t, first.Payment.ID, second.Payment.ID)

	var count int64
	require.NoError(t, f.db.Table("payments").Where("artwork_id = ?", artworkID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCreateIntentRejectsActiveArtwork(t *testing.T) {
	f := newFixture(t)
	seller := f.seedUser(t, identitydomain.RoleSeller)
	buyer := f.seedUser(t, identitydomain.RoleBuyer)

	artwork := artworkdomain.Artwork{
		ID:              f.node.Generate(),
		SellerID:        seller.UserID,
		Title:           "Open Auction",
		SecretThreshold: 100.0,
		Status:          artworkdomain.StatusActive,
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(&artwork).Error)

	_, err := f.svc.CreateIntent(context.Background(), buyer, artwork.ID)
	require.ErrorIs(t, err, artworkdomain.ErrNotActive)
}

func TestPaymentSucceededMarksSold(t *testing.T) {
	f := newFixture(t)
	_, artworkID, intent := f.seedWin(t)

	settled, err := f.svc.OnPaymentSucceeded(context.Background(), intent.Payment.ProviderReference, "ch_1")
	require.NoError(t, err)
	require.Equal(t, paymentdomain.StatusSucceeded, settled.Status)
	require.NotNil(t, settled.ChargeReference)
	require.Equal(t, "ch_1", *settled.ChargeReference)
	require.Equal(t, artworkdomain.StatusSold, f.artwork(t, artworkID).Status)
}

func TestPaymentSucceededReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	_, artworkID, intent := f.seedWin(t)

	_, err := f.svc.OnPaymentSucceeded(context.Background(), intent.Payment.ProviderReference, "ch_1")
	require.NoError(t, err)

	replayed, err := f.svc.OnPaymentSucceeded(context.Background(), intent.Payment.ProviderReference, "ch_1")
	require.NoError(t, err)
	require.Equal(t, paymentdomain.StatusSucceeded, replayed.Status)
	require.Equal(t, artworkdomain.StatusSold, f.artwork(t, artworkID).Status)

	// Exactly one audit row for the settlement.
	var count int64
	require.NoError(t, f.db.Table("audit_logs").Where("action = ?", "payment_succeeded").Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestPaymentFailedReopensAuction(t *testing.T) {
	f := newFixture(t)
	_, artworkID, intent := f.seedWin(t)

	failed, err := f.svc.OnPaymentFailed(context.Background(), intent.Payment.ProviderReference, "card_declined")
	require.NoError(t, err)
	require.Equal(t, paymentdomain.StatusFailed, failed.Status)
	require.NotNil(t, failed.FailureReason)
	require.Equal(t, "card_declined", *failed.FailureReason)

	artwork := f.artwork(t, artworkID)
	require.Equal(t, artworkdomain.StatusActive, artwork.Status)
	// The price level reached stays on the listing after a reversal.
	require.Equal(t, 120.0, artwork.CurrentHighestBid)

	var winners int64
	require.NoError(t, f.db.Table("bids").
		Where("artwork_id = ? AND is_winning = ?", artworkID, true).
		Count(&winners).Error)
	require.Zero(t, winners)
}

func TestPaymentFailedDefaultsReason(t *testing.T) {
	f := newFixture(t)
	_, _, intent := f.seedWin(t)

	failed, err := f.svc.OnPaymentFailed(context.Background(), intent.Payment.ProviderReference, "  ")
	require.NoError(t, err)
	require.NotNil(t, failed.FailureReason)
	require.Equal(t, "payment failed", *failed.FailureReason)
}

func TestRebidAfterFailedPayment(t *testing.T) {
	f := newFixture(t)
	_, artworkID, intent := f.seedWin(t)

	_, err := f.svc.OnPaymentFailed(context.Background(), intent.Payment.ProviderReference, "card_declined")
	require.NoError(t, err)

	// The reopened auction accepts new bids above the preserved high bid.
	rival := f.seedUser(t, identitydomain.RoleBuyer)
	_, err = f.bidding.Place(context.Background(), rival, biddingdomain.PlaceBidRequest{
		ArtworkID: artworkID,
		Amount:    120.0,
	})
	require.ErrorIs(t, err, biddingdomain.ErrBidTooLow)

	outcome, err := f.bidding.Place(context.Background(), rival, biddingdomain.PlaceBidRequest{
		ArtworkID: artworkID,
		Amount:    130.0,
	})
	require.NoError(t, err)
	require.True(t, outcome.Bid.IsWinning)
	require.Equal(t, artworkdomain.StatusPendingPayment, outcome.Artwork.Status)
}

func TestSettlingTwiceWithOppositeOutcomes(t *testing.T) {
	f := newFixture(t)
	_, _, intent := f.seedWin(t)

	_, err := f.svc.OnPaymentSucceeded(context.Background(), intent.Payment.ProviderReference, "ch_1")
	require.NoError(t, err)

	_, err = f.svc.OnPaymentFailed(context.Background(), intent.Payment.ProviderReference, "too late")
	require.ErrorIs(t, err, paymentdomain.ErrAlreadySettled)
}

func TestUnknownProviderReference(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.OnPaymentSucceeded(context.Background(), "pi_unknown", "ch_1")
	require.ErrorIs(t, err, paymentdomain.ErrNotFound)

	_, err = f.svc.OnPaymentFailed(context.Background(), "pi_unknown", "no such intent")
	require.ErrorIs(t, err, paymentdomain.ErrNotFound)
}
