package repo

import (
	"context"

	"github.com/asesorame/asesorame/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *GormRepo) CreateSession(ctx context.Context, s *models.Session) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(s).Error
}

func (r *GormRepo) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var s models.Session
	err := r.DB.WithContext(ctx).
		Preload("Advisor").
		Preload("Client").
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessionsForUser returns sessions where userID is either party, oldest slot first.
func (r *GormRepo) ListSessionsForUser(ctx context.Context, userID uuid.UUID, status string) ([]models.Session, error) {
	q := r.DB.WithContext(ctx).
		Preload("Advisor").
		Preload("Client").
		Where("advisor_id = ? OR client_id = ?", userID, userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	sessions := make([]models.Session, 0)
	if err := q.Order("date ASC, time ASC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func canTransition(from, to string) bool {
	if from == to {
		return true
	}
	return from == models.SessionScheduled &&
		(to == models.SessionCompleted || to == models.SessionCancelled)
}

// UpdateSessionStatus moves the session to status and, when paymentStatus is
// not empty, sets the payment status in the same statement.
func (r *GormRepo) UpdateSessionStatus(ctx context.Context, id uuid.UUID, status, paymentStatus string) (*models.Session, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s models.Session
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&s).Error; err != nil {
			return err
		}
		if status != "" && !canTransition(s.Status, status) {
			return ErrBadTransition
		}

		updates := map[string]any{}
		if status != "" && status != s.Status {
			updates["status"] = status
		}
		if paymentStatus != "" && paymentStatus != s.Payment.Status {
			updates["payment_status"] = paymentStatus
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&s).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetSession(ctx, id)
}

// DeleteSessionAndClearCart removes every cart line pointing at the session,
// empties the client's cart and deletes the session, atomically.
func (r *GormRepo) DeleteSessionAndClearCart(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var s models.Session
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&s).Error; err != nil {
			return err
		}

		if err := tx.Where("session_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}

		var cart models.Cart
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", s.ClientID).Limit(1).Find(&cart).Error
		if err != nil {
			return err
		}
		if cart.ID != uuid.Nil {
			if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&cart).Update("total_price", 0).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&s).Error
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RateSession stores the client's rating and folds the score into the
// advisor's running average.
func (r *GormRepo) RateSession(ctx context.Context, id, clientID uuid.UUID, score int, review string) (*models.Session, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s models.Session
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&s).Error; err != nil {
			return err
		}
		if s.ClientID != clientID {
			return ErrNotOwner
		}
		if s.Status != models.SessionCompleted {
			return ErrNotRateable
		}
		if s.Rated() {
			return ErrAlreadyRated
		}

		if err := tx.Model(&s).Updates(map[string]any{
			"rating_score":  score,
			"rating_review": review,
		}).Error; err != nil {
			return err
		}

		var advisor models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", s.AdvisorID).First(&advisor).Error; err != nil {
			return err
		}
		count := advisor.Profile.ReviewCount
		avg := (advisor.Profile.Rating*float64(count) + float64(score)) / float64(count+1)

		return tx.Model(&advisor).Updates(map[string]any{
			"profile_rating":       avg,
			"profile_review_count": count + 1,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetSession(ctx, id)
}
