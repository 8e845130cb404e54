package repo

import (
	"context"
	"strings"
	"time"

	"github.com/asesorame/asesorame/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdvisorFilter struct {
	Specialty string
	MinRating float64
	MinRate   float64
	MaxRate   float64
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		if err := tx.Create(u).Error; err != nil {
			if isDuplicate(err) {
				return ErrEmailTaken
			}
			return err
		}
		return nil
	})
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	users := make([]models.User, 0, limit)
	if err := r.DB.WithContext(ctx).Order("created_at ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return 0, nil, err
	}
	return total, users, nil
}

// ListAdvisors filters on rating and rate in SQL and on specialty in memory,
// since JSON array containment differs between the supported dialects.
func (r *GormRepo) ListAdvisors(ctx context.Context, f AdvisorFilter) ([]models.User, error) {
	q := r.DB.WithContext(ctx).Where("role = ?", models.RoleAdvisor)
	if f.MinRating > 0 {
		q = q.Where("profile_rating >= ?", f.MinRating)
	}
	if f.MinRate > 0 {
		q = q.Where("profile_hourly_rate >= ?", f.MinRate)
	}
	if f.MaxRate > 0 {
		q = q.Where("profile_hourly_rate <= ?", f.MaxRate)
	}

	var advisors []models.User
	if err := q.Order("profile_rating DESC, created_at ASC").Find(&advisors).Error; err != nil {
		return nil, err
	}

	if f.Specialty == "" {
		return advisors, nil
	}
	out := make([]models.User, 0, len(advisors))
	for _, a := range advisors {
		for _, s := range a.Profile.Specialties {
			if strings.EqualFold(s, f.Specialty) {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

// SearchAdvisors is the database fallback for advisor search.
func (r *GormRepo) SearchAdvisors(ctx context.Context, q string, offset, limit int) (int64, []models.User, error) {
	like := "%" + strings.ToLower(q) + "%"
	base := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleAdvisor).
		Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(profile_bio) LIKE ? OR LOWER(profile_specialties) LIKE ?", like, like, like, like).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	advisors := make([]models.User, 0, limit)
	if err := base.Order("profile_rating DESC").Offset(offset).Limit(limit).Find(&advisors).Error; err != nil {
		return 0, nil, err
	}
	return total, advisors, nil
}

// UpdateUser locks the user row, applies fn and saves the result.
func (r *GormRepo) UpdateUser(ctx context.Context, id uuid.UUID, fn func(u *models.User) error) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&user).Error; err != nil {
			return err
		}
		if err := fn(&user); err != nil {
			return err
		}
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) RevokeToken(ctx context.Context, jti string, userID uuid.UUID, expiresAt time.Time) error {
	rt := models.RevokedToken{
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rt).Error
}

func (r *GormRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("jti = ? AND expires_at > ?", jti, time.Now().UTC()).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) PurgeExpiredRevocations(ctx context.Context) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at <= ?", time.Now().UTC()).Delete(&models.RevokedToken{})
	return res.RowsAffected, res.Error
}

// GetUsersByIDs returns the users in the order of ids, skipping unknown ones.
func (r *GormRepo) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	out := make([]models.User, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var found []models.User
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}
