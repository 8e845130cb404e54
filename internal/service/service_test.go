package service

import (
	"context"
	"sync"
	"testing"

	"github.com/asesorame/asesorame/internal/models"
	"github.com/asesorame/asesorame/internal/repo"
	"github.com/asesorame/asesorame/internal/transport"
	pkgdb "github.com/asesorame/asesorame/pkg/db"
	pkghash "github.com/asesorame/asesorame/pkg/hash"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	pkghash.Cost = bcrypt.MinCost
}

type recordedEvent struct {
	Topic string
	Key   string
	Event map[string]any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, _ := event.(map[string]any)
	p.events = append(p.events, recordedEvent{Topic: topic, Key: key, Event: m})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		t, _ := e.Event["type"].(string)
		out = append(out, t)
	}
	return out
}

type testEnv struct {
	Repo     *repo.GormRepo
	Pub      *recordingPublisher
	Users    *UserService
	Sessions *SessionService
	Carts    *CartService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx := context.Background()
	db, err := pkgdb.Open(ctx, pkgdb.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	r := &repo.GormRepo{DB: db}
	require.NoError(t, r.Migrate(ctx))

	pub := &recordingPublisher{}
	return &testEnv{
		Repo:     r,
		Pub:      pub,
		Users:    &UserService{Repo: r, Events: pub, JWTSecret: []byte("test-jwt-secret")},
		Sessions: &SessionService{Repo: r, Events: pub},
		Carts:    &CartService{Repo: r, Events: pub},
	}
}

func (e *testEnv) register(t *testing.T, email, role, first, last string, rate float64) *models.User {
	t.Helper()

	ctx := context.Background()
	u, err := e.Users.Register(ctx, transport.RegisterRequest{
		Email:     email,
		Password:  "secret123",
		Role:      role,
		FirstName: first,
		LastName:  last,
	})
	require.NoError(t, err)

	if rate > 0 {
		u, err = e.Users.UpdateProfile(ctx, u.ID, transport.UpdateProfileRequest{HourlyRate: &rate})
		require.NoError(t, err)
	}
	return u
}
