package repo

import (
	"context"

	"github.com/asesorame/asesorame/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockCart finds or creates the user's cart and holds its row lock for the
// rest of the transaction.
func lockCart(tx *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Cart{UserID: userID}).Error; err != nil {
		return nil, err
	}
	var cart models.Cart
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func loadCart(tx *gorm.DB, cartID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := tx.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Session.Advisor").
		Where("id = ?", cartID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// recalculate reloads the lines and persists the derived total.
func recalculate(tx *gorm.DB, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := loadCart(tx, cartID)
	if err != nil {
		return nil, err
	}
	total := cart.Recalculate()
	if err := tx.Model(&models.Cart{}).Where("id = ?", cartID).Update("total_price", total).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

func checkSlot(tx *gorm.DB, cartID uuid.UUID, s *models.Session) error {
	var count int64
	if s.ID != uuid.Nil {
		if err := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND session_id = ?", cartID, s.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSessionInCart
		}
	}

	if err := tx.Model(&models.CartItem{}).
		Joins("JOIN sessions ON sessions.id = cart_items.session_id").
		Where("cart_items.cart_id = ? AND sessions.advisor_id = ? AND sessions.date = ? AND sessions.time = ?",
			cartID, s.AdvisorID, s.Date, s.Time).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrSlotInCart
	}
	return nil
}

// AddCartItem appends an existing session owned by userID to the user's cart.
func (r *GormRepo) AddCartItem(ctx context.Context, userID, sessionID uuid.UUID) (*models.Cart, error) {
	var out *models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockCart(tx, userID)
		if err != nil {
			return err
		}

		var s models.Session
		if err := tx.Where("id = ?", sessionID).First(&s).Error; err != nil {
			return err
		}
		if s.ClientID != userID {
			return ErrNotOwner
		}
		if s.Payment.Amount <= 0 {
			return ErrUnpriced
		}
		if err := checkSlot(tx, cart.ID, &s); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(&models.CartItem{CartID: cart.ID, SessionID: s.ID, Quantity: 1}).Error; err != nil {
			if isDuplicate(err) {
				return ErrSessionInCart
			}
			return err
		}

		out, err = recalculate(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BookIntoCart creates s and adds it to the user's cart in one transaction.
// A taken slot is rejected before the session is written.
func (r *GormRepo) BookIntoCart(ctx context.Context, userID uuid.UUID, s *models.Session) (*models.Cart, error) {
	var out *models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockCart(tx, userID)
		if err != nil {
			return err
		}
		if err := checkSlot(tx, cart.ID, s); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(s).Error; err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&models.CartItem{CartID: cart.ID, SessionID: s.ID, Quantity: 1}).Error; err != nil {
			return err
		}

		out, err = recalculate(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveCartItem deletes the line whose id or session id equals id.
func (r *GormRepo) RemoveCartItem(ctx context.Context, userID, id uuid.UUID) (*models.Cart, error) {
	var out *models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&cart).Error; err != nil {
			if isNotFound(err) {
				return ErrItemNotFound
			}
			return err
		}

		var item models.CartItem
		err := tx.Where("cart_id = ? AND (id = ? OR session_id = ?)", cart.ID, id, id).
			Order("created_at ASC").
			Limit(1).
			Find(&item).Error
		if err != nil {
			return err
		}
		if item.ID == uuid.Nil {
			return ErrItemNotFound
		}
		if err := tx.Delete(&item).Error; err != nil {
			return err
		}

		out, err = recalculate(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var out *models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockCart(tx, userID)
		if err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		out, err = recalculate(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetCart returns gorm.ErrRecordNotFound when the user never had a cart.
func (r *GormRepo) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	db := r.DB.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	return loadCart(db, cart.ID)
}
