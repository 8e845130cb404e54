package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/asesorame/asesorame/internal/events"
	"github.com/asesorame/asesorame/internal/models"
	"github.com/asesorame/asesorame/internal/repo"
	"github.com/asesorame/asesorame/internal/transport"
	pkghash "github.com/asesorame/asesorame/pkg/hash"
	"github.com/asesorame/asesorame/pkg/logging"
	"github.com/asesorame/asesorame/pkg/tokens"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AdvisorIndex is the full-text index of advisor profiles.
type AdvisorIndex interface {
	IndexAdvisor(ctx context.Context, u *models.User) error
	Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error)
}

type UserService struct {
	Repo      *repo.GormRepo
	Events    events.Publisher
	Index     AdvisorIndex
	JWTSecret []byte
	TokenTTL  time.Duration
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.register")

	email := NormalizeEmail(req.Email)
	switch {
	case email == "" || req.Password == "" || req.Role == "":
		return nil, fmt.Errorf("email, password and role are required: %w", ErrValidation)
	case !models.ValidRole(req.Role):
		return nil, fmt.Errorf("role must be client or advisor: %w", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", ErrValidation)
	}

	pwHash, err := pkghash.HashPassword(req.Password)
	if errors.Is(err, pkghash.ErrPasswordTooShort) {
		return nil, translate(err)
	}
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: pwHash,
		Role:         req.Role,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, translate(err)
	}

	publish(ctx, s.Events, events.TopicUser, user.ID.String(), map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"role":   user.Role,
	})
	s.reindex(ctx, user)
	return user, nil
}

func (s *UserService) Login(ctx context.Context, req transport.LoginRequest) (*LoginResult, error) {
	email := NormalizeEmail(req.Email)
	l := logging.FromContext(ctx).With("svc", "user.login", "email", email)

	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("email and password are required: %w", ErrValidation)
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
		}
		return nil, err
	}
	if !pkghash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "reason", "bad password")
		return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}

	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	token, claims, err := tokens.IssueAccessToken(s.JWTSecret, user.ID.String(), user.Role, ttl)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}

// Logout revokes the token until the moment it would have expired anyway.
func (s *UserService) Logout(ctx context.Context, claims *tokens.AccessClaims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return fmt.Errorf("token has no id: %w", ErrValidation)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return fmt.Errorf("token subject is not a user id: %w", ErrValidation)
	}
	return s.Repo.RevokeToken(ctx, claims.ID, userID, claims.ExpiresAt.Time)
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (s *UserService) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	return s.Repo.ListUsers(ctx, offset, limit)
}

// ParsePriceRange reads "lo-hi", where either bound may be empty.
func ParsePriceRange(v string) (lo, hi float64, err error) {
	if v == "" {
		return 0, 0, nil
	}
	a, b, ok := strings.Cut(v, "-")
	if !ok {
		return 0, 0, fmt.Errorf("priceRange must look like lo-hi: %w", ErrValidation)
	}
	if a = strings.TrimSpace(a); a != "" {
		if lo, err = strconv.ParseFloat(a, 64); err != nil {
			return 0, 0, fmt.Errorf("priceRange lower bound: %w", ErrValidation)
		}
	}
	if b = strings.TrimSpace(b); b != "" {
		if hi, err = strconv.ParseFloat(b, 64); err != nil {
			return 0, 0, fmt.Errorf("priceRange upper bound: %w", ErrValidation)
		}
	}
	if hi > 0 && lo > hi {
		return 0, 0, fmt.Errorf("priceRange lower bound above upper bound: %w", ErrValidation)
	}
	return lo, hi, nil
}

// ListAdvisors returns an empty slice, not an error, when nothing matches.
func (s *UserService) ListAdvisors(ctx context.Context, f repo.AdvisorFilter) ([]models.User, error) {
	if f.MinRating < 0 || f.MinRate < 0 || f.MaxRate < 0 {
		return nil, fmt.Errorf("filters must not be negative: %w", ErrValidation)
	}
	advisors, err := s.Repo.ListAdvisors(ctx, f)
	if err != nil {
		return nil, err
	}
	if advisors == nil {
		advisors = []models.User{}
	}
	return advisors, nil
}

// SearchAdvisors prefers the search index and falls back to the database
// when no index is configured or the index fails.
func (s *UserService) SearchAdvisors(ctx context.Context, q string, offset, limit int) (int64, []models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.search_advisors")

	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, fmt.Errorf("query is required: %w", ErrValidation)
	}

	if s.Index != nil {
		total, ids, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			users, err := s.Repo.GetUsersByIDs(ctx, ids)
			if err != nil {
				return 0, nil, err
			}
			return total, users, nil
		}
		l.Warn("search_index_failed", "reason", "falling back to database", "error", err)
	}
	return s.Repo.SearchAdvisors(ctx, q, offset, limit)
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, req transport.UpdateProfileRequest) (*models.User, error) {
	if req.HourlyRate != nil && *req.HourlyRate < 0 {
		return nil, fmt.Errorf("hourlyRate must not be negative: %w", ErrValidation)
	}

	var availability models.Availability
	if req.Availability != nil {
		var err error
		if availability, err = NormalizeAvailability(*req.Availability); err != nil {
			return nil, err
		}
	}

	var pwHash string
	if req.Password != nil {
		if *req.Password == "" {
			return nil, fmt.Errorf("password cannot be cleared: %w", ErrValidation)
		}
		var err error
		if pwHash, err = pkghash.HashPassword(*req.Password); err != nil {
			return nil, translate(err)
		}
	}

	user, err := s.Repo.UpdateUser(ctx, id, func(u *models.User) error {
		if req.FirstName != nil {
			u.FirstName = strings.TrimSpace(*req.FirstName)
		}
		if req.LastName != nil {
			u.LastName = strings.TrimSpace(*req.LastName)
		}
		if pwHash != "" {
			u.PasswordHash = pwHash
		}
		if req.Avatar != nil {
			u.Profile.Avatar = strings.TrimSpace(*req.Avatar)
		}
		if req.Bio != nil {
			u.Profile.Bio = *req.Bio
		}
		if req.Specialties != nil {
			u.Profile.Specialties = datatypes.JSONSlice[string](NormalizeSpecialties(*req.Specialties))
		}
		if req.HourlyRate != nil {
			u.Profile.HourlyRate = *req.HourlyRate
		}
		if req.Availability != nil {
			u.Availability = datatypes.NewJSONType(availability)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	publish(ctx, s.Events, events.TopicUser, user.ID.String(), map[string]any{
		"type":   "user_updated",
		"userID": user.ID,
	})
	s.reindex(ctx, user)
	return user, nil
}

func (s *UserService) reindex(ctx context.Context, u *models.User) {
	if s.Index == nil || u.Role != models.RoleAdvisor {
		return
	}
	if err := s.Index.IndexAdvisor(ctx, u); err != nil {
		logging.FromContext(ctx).Warn("advisor_index_failed", "userID", u.ID, "error", err)
	}
}

// NormalizeAvailability lowercases weekdays and sorts and de-duplicates the
// HH:mm slots of each day.
func NormalizeAvailability(in map[string][]string) (models.Availability, error) {
	out := make(models.Availability, len(in))
	for day, slots := range in {
		key := strings.ToLower(strings.TrimSpace(day))
		if !slices.Contains(models.Weekdays, key) {
			return nil, fmt.Errorf("unknown weekday %q: %w", day, ErrValidation)
		}
		norm := make([]string, 0, len(slots))
		for _, slot := range slots {
			t, err := time.Parse(models.TimeLayout, strings.TrimSpace(slot))
			if err != nil {
				return nil, fmt.Errorf("invalid time %q on %s: %w", slot, key, ErrValidation)
			}
			norm = append(norm, t.Format(models.TimeLayout))
		}
		slices.Sort(norm)
		out[key] = append(out[key], slices.Compact(norm)...)
	}
	for day, slots := range out {
		slices.Sort(slots)
		out[day] = slices.Compact(slots)
	}
	return out, nil
}

func NormalizeSpecialties(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		k := strings.ToLower(s)
		if s == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}
