package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/asesorame/asesorame/internal/events"
	"github.com/asesorame/asesorame/internal/payment"
	"github.com/asesorame/asesorame/internal/repo"
	"github.com/asesorame/asesorame/pkg/logging"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentGateway interface {
	CreatePreference(ctx context.Context, p payment.Preference) (*payment.PreferenceResponse, error)
}

type CheckoutService struct {
	Repo       *repo.GormRepo
	Gateway    PaymentGateway
	Events     events.Publisher
	Currency   string
	SuccessURL string
	FailureURL string
	PendingURL string
}

// CreatePaymentLink builds a preference from the user's cart and returns the
// processor's redirect URL. Nothing is persisted locally.
func (s *CheckoutService) CreatePaymentLink(ctx context.Context, userID uuid.UUID, email string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "checkout.payment_link")

	cart, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("cart is empty: %w", ErrValidation)
		}
		return "", err
	}
	if len(cart.Items) == 0 {
		return "", fmt.Errorf("cart is empty: %w", ErrValidation)
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return "", translate(err)
	}
	payer := user.Email
	if payer == "" {
		payer = NormalizeEmail(email)
	}

	currency := s.Currency
	if currency == "" {
		currency = "CLP"
	}
	items := make([]payment.Item, 0, len(cart.Items))
	for i := range cart.Items {
		it := &cart.Items[i]
		title := "Asesoría"
		if it.Session != nil && it.Session.Advisor != nil {
			title = "Asesoría con " + it.Session.Advisor.FullName()
		}
		items = append(items, payment.Item{
			Title:      title,
			Quantity:   it.Quantity,
			UnitPrice:  it.Rate(),
			CurrencyID: currency,
		})
	}

	pref := payment.Preference{
		Items: items,
		Payer: payment.Payer{Email: payer},
		BackURLs: payment.BackURLs{
			Success: s.SuccessURL,
			Failure: s.FailureURL,
			Pending: s.PendingURL,
		},
		AutoReturn:        "approved",
		ExternalReference: cart.ID.String(),
	}

	resp, err := s.Gateway.CreatePreference(ctx, pref)
	if err != nil {
		l.Error("preference_failed", "cartID", cart.ID, "error", err)
		return "", translate(err)
	}

	publish(ctx, s.Events, events.TopicCheckout, userID.String(), map[string]any{
		"type":         "payment_link_created",
		"userID":       userID,
		"cartID":       cart.ID,
		"preferenceID": resp.ID,
		"totalPrice":   cart.TotalPrice,
		"email":        payer,
	})
	return resp.InitPoint, nil
}
