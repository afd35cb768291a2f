package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gavelhq/gavel/internal/authorization"
	biddingdomain "github.com/gavelhq/gavel/internal/bidding/domain"
	"github.com/gin-gonic/gin"
)

type placeBidBody struct {
	ArtworkID string  `json:"artwork_id" binding:"required"`
	Amount    float64 `json:"amount" binding:"required"`
}

func (s *Server) handlePlaceBid(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	if !authorization.CanBid(identity) {
		AbortWithError(c, ErrForbidden)
		return
	}

	var body placeBidBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error()))
		return
	}
	artworkID, err := parseID(body.ArtworkID)
	if err != nil {
		AbortWithError(c, fmt.Errorf("%w: artwork_id must be a valid id", ErrInvalidRequest))
		return
	}

	outcome, err := s.biddingSvc.Place(c.Request.Context(), identity, biddingdomain.PlaceBidRequest{
		ArtworkID: artworkID,
		Amount:    body.Amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, outcome)
}

func (s *Server) handleListArtworkBids(c *gin.Context) {
	artworkID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, fmt.Errorf("%w: id must be a valid id", ErrInvalidRequest))
		return
	}

	bids, err := s.biddingSvc.ListByArtwork(c.Request.Context(), artworkID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bids": bids})
}

func (s *Server) handleMyBids(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	bids, err := s.biddingSvc.ListByBidder(c.Request.Context(), identity.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bids": bids})
}

func parseID(raw string) (snowflake.ID, error) {
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return snowflake.ID(parsed), nil
}
