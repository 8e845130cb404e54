package repo

import (
	"context"
	"errors"

	"github.com/asesorame/asesorame/internal/models"
	"gorm.io/gorm"
)

// Sentinel errors returned by the repositories. The service layer maps them
// to its own error taxonomy.
var (
	ErrEmailTaken    = errors.New("email already registered")
	ErrSessionInCart = errors.New("session already in cart")
	ErrSlotInCart    = errors.New("slot already in cart")
	ErrItemNotFound  = errors.New("cart item not found")
	ErrNotOwner      = errors.New("session belongs to another client")
	ErrUnpriced      = errors.New("session has no valid price")
	ErrNotRateable   = errors.New("session is not completed")
	ErrAlreadyRated  = errors.New("session already rated")
	ErrBadTransition = errors.New("status transition not allowed")
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Cart{},
		&models.CartItem{},
		&models.RevokedToken{},
	)
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
