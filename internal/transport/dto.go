package transport

import (
	"time"

	"github.com/asesorame/asesorame/internal/models"
	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest is a sparse patch: nil means "leave as is", a
// non-nil zero value clears the field.
type UpdateProfileRequest struct {
	FirstName    *string              `json:"firstName"`
	LastName     *string              `json:"lastName"`
	Password     *string              `json:"password"`
	Avatar       *string              `json:"avatar"`
	Bio          *string              `json:"bio"`
	Specialties  *[]string            `json:"specialties"`
	HourlyRate   *float64             `json:"hourlyRate"`
	Availability *map[string][]string `json:"availability"`
}

type PaymentRequest struct {
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	TransactionID string  `json:"transactionId"`
}

type CreateSessionRequest struct {
	AdvisorID string         `json:"advisorId"`
	ClientID  string         `json:"clientId"`
	Date      string         `json:"date"`
	Time      string         `json:"time"`
	Duration  int            `json:"duration"`
	Payment   PaymentRequest `json:"payment"`
	Notes     string         `json:"notes"`
}

type UpdateSessionRequest struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
}

type RateSessionRequest struct {
	Score  int    `json:"score"`
	Review string `json:"review"`
}

// AddToCartRequest carries either SessionID or the raw booking fields.
type AddToCartRequest struct {
	SessionID string  `json:"sessionId"`
	AdvisorID string  `json:"advisorId"`
	Date      string  `json:"date"`
	Time      string  `json:"time"`
	Duration  int     `json:"duration"`
	Rate      float64 `json:"rate"`
	Notes     string  `json:"notes"`
}

type PaymentLinkRequest struct {
	Email string `json:"email"`
}

type PartySummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
}

func NewPartySummary(u *models.User) *PartySummary {
	if u == nil {
		return nil
	}
	return &PartySummary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

type SessionResponse struct {
	models.Session
	Advisor *PartySummary `json:"advisor,omitempty"`
	Client  *PartySummary `json:"client,omitempty"`
}

func NewSessionResponse(s *models.Session) SessionResponse {
	return SessionResponse{
		Session: *s,
		Advisor: NewPartySummary(s.Advisor),
		Client:  NewPartySummary(s.Client),
	}
}

func NewSessionResponses(list []models.Session) []SessionResponse {
	out := make([]SessionResponse, 0, len(list))
	for i := range list {
		out = append(out, NewSessionResponse(&list[i]))
	}
	return out
}

// CartLine is a cart item joined with its session and advisor for display.
type CartLine struct {
	ID          uuid.UUID `json:"id"`
	SessionID   uuid.UUID `json:"sessionId"`
	Quantity    int       `json:"quantity"`
	AdvisorID   uuid.UUID `json:"advisorId"`
	AdvisorName string    `json:"advisorName"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Duration    int       `json:"duration"`
	Rate        float64   `json:"rate"`
	Subtotal    float64   `json:"subtotal"`
}

type CartResponse struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"userId"`
	Items      []CartLine `json:"items"`
	TotalPrice float64    `json:"totalPrice"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func NewCartResponse(c *models.Cart) CartResponse {
	lines := make([]CartLine, 0, len(c.Items))
	for i := range c.Items {
		it := &c.Items[i]
		line := CartLine{
			ID:        it.ID,
			SessionID: it.SessionID,
			Quantity:  it.Quantity,
			Rate:      it.Rate(),
			Subtotal:  float64(it.Quantity) * it.Rate(),
		}
		if s := it.Session; s != nil {
			line.AdvisorID = s.AdvisorID
			line.Date = s.Date
			line.Time = s.Time
			line.Duration = s.Duration
			if s.Advisor != nil {
				line.AdvisorName = s.Advisor.FullName()
			}
		}
		lines = append(lines, line)
	}
	return CartResponse{
		ID:         c.ID,
		UserID:     c.UserID,
		Items:      lines,
		TotalPrice: c.TotalPrice,
		UpdatedAt:  c.UpdatedAt,
	}
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}
