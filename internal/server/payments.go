package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gavelhq/gavel/internal/authorization"
	"github.com/gin-gonic/gin"
)

type createIntentBody struct {
	ArtworkID string `json:"artwork_id" binding:"required"`
}

func (s *Server) handleCreatePaymentIntent(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var body createIntentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error()))
		return
	}
	artworkID, err := parseID(body.ArtworkID)
	if err != nil {
		AbortWithError(c, fmt.Errorf("%w: artwork_id must be a valid id", ErrInvalidRequest))
		return
	}

	intent, err := s.paymentSvc.CreateIntent(c.Request.Context(), identity, artworkID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, intent)
}

func (s *Server) handleGetPayment(c *gin.Context) {
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

	payment, err := s.paymentSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if payment.PayerID != identity.UserID && !authorization.CanAdminister(identity) {
		AbortWithError(c, ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, payment)
}

type webhookBody struct {
	Type              string `json:"type" binding:"required"`
	ProviderReference string `json:"provider_reference" binding:"required"`
	ChargeReference   string `json:"charge_reference"`
	Reason            string `json:"reason"`
}

// handlePaymentWebhook receives provider callbacks. The raw body is
// authenticated with an HMAC-SHA256 signature before any parsing of the
// event is trusted.
func (s *Server) handlePaymentWebhook(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		AbortWithError(c, fmt.Errorf("%w: unreadable body", ErrInvalidRequest))
		return
	}
	if !s.verifyWebhookSignature(raw, c.GetHeader("X-Webhook-Signature")) {
		AbortWithError(c, ErrInvalidSignature)
		return
	}

	var body webhookBody
	if err := bindJSON(raw, &body); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error()))
		return
	}

	ctx := c.Request.Context()
	switch body.Type {
	case "payment.succeeded":
		payment, err := s.paymentSvc.OnPaymentSucceeded(ctx, body.ProviderReference, body.ChargeReference)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": string(payment.Status)})
	case "payment.failed":
		payment, err := s.paymentSvc.OnPaymentFailed(ctx, body.ProviderReference, body.Reason)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": string(payment.Status)})
	default:
		AbortWithError(c, fmt.Errorf("%w: unknown event type %q", ErrInvalidRequest, body.Type))
	}
}

func bindJSON(raw []byte, out any) error {
	return json.Unmarshal(raw, out)
}

func (s *Server) verifyWebhookSignature(body []byte, signature string) bool {
	secret := strings.TrimSpace(s.cfg.PaymentWebhookSecret)
	if secret == "" {
		return false
	}
	signature = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(signature), "sha256="))
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
