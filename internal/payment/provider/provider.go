package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/gavelhq/gavel/internal/payment/domain"
	"github.com/google/uuid"
)

// Local issues provider references in-process. It stands in for a real
// payment gateway; settlement still arrives through the webhook endpoint.
type Local struct{}

func NewLocal() *Local {
	return &Local{}
}

func (p *Local) CreateIntent(ctx context.Context, payment *domain.Payment) (*domain.ProviderIntent, error) {
	if payment == nil {
		return nil, fmt.Errorf("provider: nil payment")
	}
	ref := "pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	return &domain.ProviderIntent{
		Reference:    ref,
		ClientSecret: ref + "_secret_" + uuid.NewString(),
	}, nil
}
