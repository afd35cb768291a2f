package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	artworkdomain "github.com/gavelhq/gavel/internal/artwork/domain"
	"github.com/gin-gonic/gin"
)

type createArtworkBody struct {
	Title           string  `json:"title" binding:"required"`
	Artist          string  `json:"artist"`
	Category        string  `json:"category"`
	Description     string  `json:"description"`
	ImageURL        string  `json:"image_url"`
	SecretThreshold float64 `json:"secret_threshold" binding:"required"`
	EndDate         *string `json:"end_date"`
}

func (s *Server) handleCreateArtwork(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var body createArtworkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error()))
		return
	}

	var endDate *time.Time
	if body.EndDate != nil && *body.EndDate != "" {
		parsed, err := time.Parse(time.RFC3339, *body.EndDate)
		if err != nil {
			AbortWithError(c, fmt.Errorf("%w: end_date must be RFC 3339", ErrInvalidRequest))
			return
		}
		endDate = &parsed
	}

	artwork, err := s.artworkSvc.Create(c.Request.Context(), identity, artworkdomain.CreateArtworkRequest{
		Title:           body.Title,
		Artist:          body.Artist,
		Category:        body.Category,
		Description:     body.Description,
		ImageURL:        body.ImageURL,
		SecretThreshold: body.SecretThreshold,
		EndDate:         endDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, artwork)
}

func (s *Server) handleGetArtwork(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, fmt.Errorf("%w: id must be a valid id", ErrInvalidRequest))
		return
	}

	artwork, err := s.artworkSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, artwork)
}

func (s *Server) handleListArtworks(c *gin.Context) {
	req := artworkdomain.ListArtworkRequest{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Limit:    queryInt(c, "limit", 50),
		Offset:   queryInt(c, "offset", 0),
	}
	if raw := c.Query("seller_id"); raw != "" {
		sellerID, err := parseID(raw)
		if err != nil {
			AbortWithError(c, fmt.Errorf("%w: seller_id must be a valid id", ErrInvalidRequest))
			return
		}
		req.SellerID = sellerID
	}

	artworks, err := s.artworkSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"artworks": artworks})
}

func (s *Server) handleDeleteArtwork(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, fmt.Errorf("%w: id must be a valid id", ErrInvalidRequest))
		return
	}

	if err := s.artworkSvc.Delete(c.Request.Context(), identity, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}
