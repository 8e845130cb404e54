package service

import (
	"context"
	"fmt"

	"github.com/asesorame/asesorame/internal/events"
	"github.com/asesorame/asesorame/internal/models"
	"github.com/asesorame/asesorame/internal/repo"
	"github.com/asesorame/asesorame/internal/transport"
	"github.com/google/uuid"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}
	return cart, nil
}

// Add attaches an existing session when SessionID is set, otherwise it books
// a new session from the raw fields and attaches it atomically.
func (s *CartService) Add(ctx context.Context, userID uuid.UUID, req transport.AddToCartRequest) (*models.Cart, error) {
	var (
		cart *models.Cart
		err  error
	)
	if req.SessionID != "" {
		cart, err = s.addExisting(ctx, userID, req.SessionID)
	} else {
		cart, err = s.book(ctx, userID, req)
	}
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicCart, userID.String(), map[string]any{
		"type":       "cart_item_added",
		"userID":     userID,
		"cartID":     cart.ID,
		"items":      len(cart.Items),
		"totalPrice": cart.TotalPrice,
	})
	return cart, nil
}

func (s *CartService) addExisting(ctx context.Context, userID uuid.UUID, rawID string) (*models.Cart, error) {
	sessionID, err := parseID(rawID, "sessionId")
	if err != nil {
		return nil, err
	}
	cart, err := s.Repo.AddCartItem(ctx, userID, sessionID)
	if err != nil {
		return nil, translate(err)
	}
	return cart, nil
}

func (s *CartService) book(ctx context.Context, userID uuid.UUID, req transport.AddToCartRequest) (*models.Cart, error) {
	advisorID, err := parseID(req.AdvisorID, "advisorId")
	if err != nil {
		return nil, err
	}
	date, tm, err := normalizeSlot(req.Date, req.Time, req.Duration)
	if err != nil {
		return nil, err
	}
	if req.Rate < 0 {
		return nil, fmt.Errorf("rate must not be negative: %w", ErrValidation)
	}

	advisor, err := loadAdvisor(ctx, s.Repo, advisorID)
	if err != nil {
		return nil, err
	}
	rate := req.Rate
	if rate == 0 {
		rate = advisor.Profile.HourlyRate
	}
	if rate <= 0 {
		return nil, fmt.Errorf("advisor has no hourly rate: %w", ErrValidation)
	}

	session := &models.Session{
		AdvisorID: advisorID,
		ClientID:  userID,
		Date:      date,
		Time:      tm,
		Duration:  req.Duration,
		Payment:   models.Payment{Amount: rate},
		Notes:     req.Notes,
	}
	cart, err := s.Repo.BookIntoCart(ctx, userID, session)
	if err != nil {
		return nil, translate(err)
	}

	publish(ctx, s.Events, events.TopicSession, session.ID.String(), map[string]any{
		"type":      "session_created",
		"sessionID": session.ID,
		"advisorID": advisorID,
		"clientID":  userID,
		"date":      session.Date,
		"time":      session.Time,
	})
	return cart, nil
}

// Remove drops the line whose id or session id equals id.
func (s *CartService) Remove(ctx context.Context, userID, id uuid.UUID) (*models.Cart, error) {
	cart, err := s.Repo.RemoveCartItem(ctx, userID, id)
	if err != nil {
		return nil, translate(err)
	}

	publish(ctx, s.Events, events.TopicCart, userID.String(), map[string]any{
		"type":       "cart_item_removed",
		"userID":     userID,
		"cartID":     cart.ID,
		"itemID":     id,
		"totalPrice": cart.TotalPrice,
	})
	return cart, nil
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.Repo.ClearCart(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}

	publish(ctx, s.Events, events.TopicCart, userID.String(), map[string]any{
		"type":   "cart_cleared",
		"userID": userID,
		"cartID": cart.ID,
	})
	return cart, nil
}
