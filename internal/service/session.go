package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/asesorame/asesorame/internal/events"
	"github.com/asesorame/asesorame/internal/models"
	"github.com/asesorame/asesorame/internal/repo"
	"github.com/asesorame/asesorame/internal/transport"
	"github.com/asesorame/asesorame/pkg/logging"
	"github.com/google/uuid"
)

type SessionService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	Index  AdvisorIndex
}

// normalizeSlot returns date and time in their stored layouts. time.Parse
// accepts "9:00" for "15:04", so the zero-padded form is what gets compared
// and sorted.
func normalizeSlot(date, tm string, duration int) (string, string, error) {
	d, err := time.Parse(models.DateLayout, strings.TrimSpace(date))
	if err != nil {
		return "", "", fmt.Errorf("date must be YYYY-MM-DD: %w", ErrValidation)
	}
	t, err := time.Parse(models.TimeLayout, strings.TrimSpace(tm))
	if err != nil {
		return "", "", fmt.Errorf("time must be HH:mm: %w", ErrValidation)
	}
	if duration <= 0 {
		return "", "", fmt.Errorf("duration must be positive: %w", ErrValidation)
	}
	return d.Format(models.DateLayout), t.Format(models.TimeLayout), nil
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s must be a uuid: %w", field, ErrValidation)
	}
	return id, nil
}

// loadAdvisor fails with ErrNotFound unless id names a user with the advisor role.
func loadAdvisor(ctx context.Context, r *repo.GormRepo, id uuid.UUID) (*models.User, error) {
	advisor, err := r.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("advisor: %w", translate(err))
	}
	if advisor.Role != models.RoleAdvisor {
		return nil, fmt.Errorf("user %s is not an advisor: %w", id, ErrNotFound)
	}
	return advisor, nil
}

func (s *SessionService) Create(ctx context.Context, callerID uuid.UUID, req transport.CreateSessionRequest) (*models.Session, error) {
	advisorID, err := parseID(req.AdvisorID, "advisorId")
	if err != nil {
		return nil, err
	}
	clientID := callerID
	if req.ClientID != "" {
		if clientID, err = parseID(req.ClientID, "clientId"); err != nil {
			return nil, err
		}
	}
	if callerID != advisorID && callerID != clientID {
		return nil, fmt.Errorf("caller must be a party to the session: %w", ErrForbidden)
	}
	date, tm, err := normalizeSlot(req.Date, req.Time, req.Duration)
	if err != nil {
		return nil, err
	}
	if req.Payment.Amount <= 0 {
		return nil, fmt.Errorf("payment amount must be positive: %w", ErrValidation)
	}
	if req.Payment.Status != "" && !models.ValidPaymentStatus(req.Payment.Status) {
		return nil, fmt.Errorf("unknown payment status %q: %w", req.Payment.Status, ErrValidation)
	}

	if _, err := loadAdvisor(ctx, s.Repo, advisorID); err != nil {
		return nil, err
	}
	if _, err := s.Repo.GetUserByID(ctx, clientID); err != nil {
		return nil, fmt.Errorf("client: %w", translate(err))
	}

	session := &models.Session{
		AdvisorID: advisorID,
		ClientID:  clientID,
		Date:      date,
		Time:      tm,
		Duration:  req.Duration,
		Payment: models.Payment{
			Amount:        req.Payment.Amount,
			Status:        req.Payment.Status,
			TransactionID: req.Payment.TransactionID,
		},
		Notes: req.Notes,
	}
	if err := s.Repo.CreateSession(ctx, session); err != nil {
		return nil, translate(err)
	}

	publish(ctx, s.Events, events.TopicSession, session.ID.String(), map[string]any{
		"type":      "session_created",
		"sessionID": session.ID,
		"advisorID": advisorID,
		"clientID":  clientID,
		"date":      session.Date,
		"time":      session.Time,
	})

	created, err := s.Repo.GetSession(ctx, session.ID)
	if err != nil {
		return nil, translate(err)
	}
	return created, nil
}

func (s *SessionService) Get(ctx context.Context, callerID, id uuid.UUID) (*models.Session, error) {
	session, err := s.Repo.GetSession(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if !session.IsParty(callerID) {
		return nil, fmt.Errorf("session %s: %w", id, ErrForbidden)
	}
	return session, nil
}

func (s *SessionService) ListForUser(ctx context.Context, userID uuid.UUID, status string) ([]models.Session, error) {
	if status != "" && !models.ValidSessionStatus(status) {
		return nil, fmt.Errorf("unknown status %q: %w", status, ErrValidation)
	}
	return s.Repo.ListSessionsForUser(ctx, userID, status)
}

func (s *SessionService) UpdateStatus(ctx context.Context, callerID, id uuid.UUID, req transport.UpdateSessionRequest) (*models.Session, error) {
	switch {
	case req.Status == "" && req.PaymentStatus == "":
		return nil, fmt.Errorf("status or paymentStatus is required: %w", ErrValidation)
	case req.Status != "" && !models.ValidSessionStatus(req.Status):
		return nil, fmt.Errorf("unknown status %q: %w", req.Status, ErrValidation)
	case req.PaymentStatus != "" && !models.ValidPaymentStatus(req.PaymentStatus):
		return nil, fmt.Errorf("unknown payment status %q: %w", req.PaymentStatus, ErrValidation)
	}

	before, err := s.Get(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.Repo.UpdateSessionStatus(ctx, id, req.Status, req.PaymentStatus)
	if err != nil {
		return nil, translate(err)
	}

	if updated.Status != before.Status || updated.Payment.Status != before.Payment.Status {
		publish(ctx, s.Events, events.TopicSession, id.String(), map[string]any{
			"type":          "session_status_changed",
			"sessionID":     id,
			"from":          before.Status,
			"to":            updated.Status,
			"paymentStatus": updated.Payment.Status,
		})
	}
	return updated, nil
}

// Delete removes the session and empties the client's cart.
func (s *SessionService) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	if _, err := s.Get(ctx, callerID, id); err != nil {
		return err
	}

	deleted, err := s.Repo.DeleteSessionAndClearCart(ctx, id)
	if err != nil {
		return translate(err)
	}

	publish(ctx, s.Events, events.TopicSession, id.String(), map[string]any{
		"type":      "session_deleted",
		"sessionID": id,
		"advisorID": deleted.AdvisorID,
		"clientID":  deleted.ClientID,
	})
	publish(ctx, s.Events, events.TopicCart, deleted.ClientID.String(), map[string]any{
		"type":   "cart_cleared",
		"userID": deleted.ClientID,
		"reason": "session_deleted",
	})
	return nil
}

func (s *SessionService) Rate(ctx context.Context, callerID, id uuid.UUID, req transport.RateSessionRequest) (*models.Session, error) {
	if req.Score < 1 || req.Score > 5 {
		return nil, fmt.Errorf("score must be between 1 and 5: %w", ErrValidation)
	}

	rated, err := s.Repo.RateSession(ctx, id, callerID, req.Score, strings.TrimSpace(req.Review))
	if err != nil {
		return nil, translate(err)
	}

	publish(ctx, s.Events, events.TopicSession, id.String(), map[string]any{
		"type":      "session_rated",
		"sessionID": id,
		"advisorID": rated.AdvisorID,
		"score":     req.Score,
	})
	if s.Index != nil && rated.Advisor != nil {
		if err := s.Index.IndexAdvisor(ctx, rated.Advisor); err != nil {
			logging.FromContext(ctx).Warn("advisor_index_failed", "userID", rated.AdvisorID, "error", err)
		}
	}
	return rated, nil
}
