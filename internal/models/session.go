package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SessionScheduled = "scheduled"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentRefunded  = "refunded"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Payment struct {
	Amount        float64 `gorm:"not null"                          json:"amount"`
	Status        string  `gorm:"size:16;not null;default:pending"  json:"status"`
	TransactionID string  `gorm:"size:128"                          json:"transactionId,omitempty"`
}

// Rating is unset while Score is zero.
type Rating struct {
	Score  int    `gorm:"not null;default:0" json:"score"`
	Review string `gorm:"type:text"          json:"review"`
}

type Session struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"                        json:"id"`
	AdvisorID uuid.UUID `gorm:"type:char(36);index;not null"                    json:"advisorId"`
	Advisor   *User     `gorm:"foreignKey:AdvisorID"                            json:"-"`
	ClientID  uuid.UUID `gorm:"type:char(36);index;not null"                    json:"clientId"`
	Client    *User     `gorm:"foreignKey:ClientID"                             json:"-"`
	Date      string    `gorm:"size:10;not null"                                json:"date"`
	Time      string    `gorm:"size:5;not null"                                 json:"time"`
	Duration  int       `gorm:"not null;check:duration>0"                       json:"duration"`
	Status    string    `gorm:"size:16;not null;default:scheduled;index"        json:"status"`
	Payment   Payment   `gorm:"embedded;embeddedPrefix:payment_"                json:"payment"`
	Notes     string    `gorm:"type:text"                                       json:"notes"`
	Rating    Rating    `gorm:"embedded;embeddedPrefix:rating_"                 json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = SessionScheduled
	}
	if s.Payment.Status == "" {
		s.Payment.Status = PaymentPending
	}
	return nil
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) IsParty(userID uuid.UUID) bool {
	return s.AdvisorID == userID || s.ClientID == userID
}

func (s *Session) Rated() bool {
	return s.Rating.Score > 0
}

func ValidSessionStatus(status string) bool {
	switch status {
	case SessionScheduled, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

func ValidPaymentStatus(status string) bool {
	switch status {
	case PaymentPending, PaymentCompleted, PaymentRefunded:
		return true
	}
	return false
}
