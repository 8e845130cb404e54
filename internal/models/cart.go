package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Cart struct {
	ID         uuid.UUID  `gorm:"type:char(36);primaryKey"                  json:"id"`
	UserID     uuid.UUID  `gorm:"type:char(36);uniqueIndex;not null"        json:"userId"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	TotalPrice float64    `gorm:"not null;default:0"                        json:"totalPrice"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (Cart) TableName() string {
	return "carts"
}

// CartItem only references its session; display fields are joined on read.
type CartItem struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"                               json:"id"`
	CartID    uuid.UUID `gorm:"type:char(36);uniqueIndex:idx_cart_session;not null"    json:"cartId"`
	SessionID uuid.UUID `gorm:"type:char(36);uniqueIndex:idx_cart_session;not null"    json:"sessionId"`
	Session   *Session  `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"       json:"-"`
	Quantity  int       `gorm:"not null;default:1;check:quantity>0"                    json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Quantity == 0 {
		c.Quantity = 1
	}
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}

// Rate is the price of one unit of the line, taken from the joined session.
func (c *CartItem) Rate() float64 {
	if c.Session == nil {
		return 0
	}
	return c.Session.Payment.Amount
}

// Recalculate sets TotalPrice to the sum of quantity × rate over Items.
func (c *Cart) Recalculate() float64 {
	var total float64
	for i := range c.Items {
		total += float64(c.Items[i].Quantity) * c.Items[i].Rate()
	}
	c.TotalPrice = total
	return total
}
