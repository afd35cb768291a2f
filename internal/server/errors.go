package server

import (
	"errors"
	"net/http"
	"strings"

	artworkdomain "github.com/gavelhq/gavel/internal/artwork/domain"
	auditdomain "github.com/gavelhq/gavel/internal/audit/domain"
	biddingdomain "github.com/gavelhq/gavel/internal/bidding/domain"
	identitydomain "github.com/gavelhq/gavel/internal/identity/domain"
	paymentdomain "github.com/gavelhq/gavel/internal/payment/domain"
	"github.com/gin-gonic/gin"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidRequest   = errors.New("invalid_request")
	ErrInvalidSignature = errors.New("invalid_signature")
)

type apiError struct {
	Type    string   `json:"type"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

// classify maps a domain error to an HTTP status, an error type label and
// a stable code. The wrapped sentinel text is the code; anything appended
// by the service becomes the human message.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", ErrUnauthorized.Error()
	case errors.Is(err, ErrInvalidSignature):
		return http.StatusUnauthorized, "unauthorized", ErrInvalidSignature.Error()
	case errors.Is(err, ErrForbidden),
		errors.Is(err, biddingdomain.ErrSelfBidding),
		errors.Is(err, artworkdomain.ErrNotOwner):
		return http.StatusForbidden, "forbidden", sentinelOf(err)
	case errors.Is(err, artworkdomain.ErrNotFound),
		errors.Is(err, biddingdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, identitydomain.ErrNotFound):
		return http.StatusNotFound, "not_found", sentinelOf(err)
	case errors.Is(err, artworkdomain.ErrNotActive),
		errors.Is(err, artworkdomain.ErrHasWinningBid),
		errors.Is(err, biddingdomain.ErrBidTooLow),
		errors.Is(err, paymentdomain.ErrAlreadySettled),
		errors.Is(err, paymentdomain.ErrNotAwaitingPayer),
		errors.Is(err, paymentdomain.ErrNoWinningBid):
		return http.StatusConflict, "conflict", sentinelOf(err)
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, biddingdomain.ErrInvalidAmount),
		errors.Is(err, biddingdomain.ErrAmountTooLarge),
		errors.Is(err, artworkdomain.ErrInvalidTitle),
		errors.Is(err, artworkdomain.ErrInvalidThreshold),
		errors.Is(err, artworkdomain.ErrInvalidEndDate),
		errors.Is(err, identitydomain.ErrInvalidRole),
		errors.Is(err, identitydomain.ErrInvalidSubject),
		errors.Is(err, auditdomain.ErrInvalidAction):
		return http.StatusBadRequest, "validation_error", sentinelOf(err)
	default:
		return http.StatusInternalServerError, "internal_error", "internal_error"
	}
}

// sentinelOf extracts the sentinel token from a possibly wrapped error.
func sentinelOf(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ":"); i > 0 {
		return msg[:i]
	}
	return msg
}

// AbortWithError writes the uniform error envelope for a domain error.
func AbortWithError(c *gin.Context, err error) {
	status, errType, code := classify(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{Error: apiError{
		Type:    errType,
		Message: message,
		Errors:  []string{code},
	}})
}

// ErrorClassifier adapts classify for the request logger.
func ErrorClassifier(err error) (string, string) {
	_, errType, code := classify(err)
	return errType, code
}
