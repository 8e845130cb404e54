package service

import (
	"context"
	"testing"

	"github.com/asesorame/asesorame/internal/models"
	"github.com/asesorame/asesorame/internal/transport"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionReq(advisor *models.User, date, tm string, amount float64) transport.CreateSessionRequest {
	return transport.CreateSessionRequest{
		AdvisorID: advisor.ID.String(),
		Date:      date,
		Time:      tm,
		Duration:  60,
		Payment:   transport.PaymentRequest{Amount: amount},
		Notes:     "primera sesión",
	}
}

func TestSessionCreate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	advisor := env.register(t, "a@x.com", models.RoleAdvisor, "Ana", "Pérez", 25)
	client := env.register(t, "c@x.com", models.RoleClient, "Carla", "Soto", 0)

	s, err := env.Sessions.Create(ctx, client.ID, sessionReq(advisor, "2030-06-10", "09:00", 25))
	require.NoError(t, err)
	assert.Equal(t, models.SessionScheduled, s.Status)
	assert.Equal(t, models.PaymentPending, s.Payment.Status)
	assert.Equal(t, client.ID, s.ClientID)
	require.NotNil(t, s.Advisor)
	assert.Equal(t, "Ana", s.Advisor.FirstName)
	assert.Contains(t, env.Pub.types(), "session_created")
}

func TestSessionCreate_Rejections(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	advisor := env.register(t, "a@x.com", models.RoleAdvisor, "Ana", "Pérez", 25)
	client := env.register(t, "c@x.com", models.RoleClient, "Carla", "Soto", 0)
	stranger := env.register(t, "s@x.com", models.RoleClient, "", "", 0)

	tests := []struct {
		name    string
		caller  uuid.UUID
		mutate  func(r *transport.CreateSessionRequest)
		wantErr error
	}{
		{name: "bad date", caller: client.ID, mutate: func(r *transport.CreateSessionRequest) { r.Date = "10/06/2030" }, wantErr: ErrValidation},
		{name: "bad time", caller: client.ID, mutate: func(r *transport.CreateSessionRequest) { r.Time = "9am" }, wantErr: ErrValidation},
		{name: "zero duration", caller: client.ID, mutate: func(r *transport.CreateSessionRequest) { r.Duration = 0 }, wantErr: ErrValidation},
		{name: "zero amount", caller: client.ID, mutate: func(r *transport.CreateSessionRequest) { r.Payment.Amount = 0 }, wantErr: ErrValidation},
		{name: "bad payment status", caller: client.ID, mutate: func(r *transport.CreateSessionRequest) { r.Payment.Status = "paid" }, wantErr: ErrValidation},
		{name: "missing advisor", caller: client.ID, mutate: func(r *transport.CreateSessionRequest) { r.AdvisorID = "" }, wantErr: ErrValidation},
		{name: "unknown advisor", caller: client.ID, mutate: func(r *transport.CreateSessionRequest) { r.AdvisorID = uuid.NewString() }, wantErr: ErrNotFound},
		{name: "advisor is a client", caller: client.ID, mutate: func(r *transport.CreateSessionRequest) { r.AdvisorID = stranger.ID.String() }, wantErr: ErrNotFound},
		{name: "caller not a party", caller: stranger.ID, mutate: func(r *transport.CreateSessionRequest) { r.ClientID = client.ID.String() }, wantErr: ErrForbidden},
	}

	for _, tt := range tests {
		req := sessionReq(advisor, "2030-06-10", "09:00", 25)
		tt.mutate(&req)
		_, err := env.Sessions.Create(ctx, tt.caller, req)
		require.ErrorIs(t, err, tt.wantErr, tt.name)
	}
}

func TestSessionGetAndList_PartyOnly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	advisor := env.register(t, "a@x.com", models.RoleAdvisor, "Ana", "Pérez", 25)
	client := env.register(t, "c@x.com", models.RoleClient, "Carla", "Soto", 0)
	stranger := env.register(t, "s@x.com", models.RoleClient, "", "", 0)

	s, err := env.Sessions.Create(ctx, client.ID, sessionReq(advisor, "2030-06-10", "09:00", 25))
	require.NoError(t, err)

	_, err = env.Sessions.Get(ctx, advisor.ID, s.ID)
	require.NoError(t, err)
	_, err = env.Sessions.Get(ctx, stranger.ID, s.ID)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = env.Sessions.Get(ctx, client.ID, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)

	list, err := env.Sessions.ListForUser(ctx, advisor.ID, "")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = env.Sessions.ListForUser(ctx, advisor.ID, "pending")
	require.ErrorIs(t, err, ErrValidation)
}

func TestSessionList_OrdersBySlot(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	advisor := env.register(t, "a@x.com", models.RoleAdvisor, "Ana", "Pérez", 25)
	client := env.register(t, "c@x.com", models.RoleClient, "Carla", "Soto", 0)

	for _, tm := range []string{"10:00", "9:00", "14:30"} {
		_, err := env.Sessions.Create(ctx, client.ID, sessionReq(advisor, "2030-06-10", tm, 25))
		require.NoError(t, err)
	}
	_, err := env.Sessions.Create(ctx, client.ID, sessionReq(advisor, "2030-06-09", "18:00", 25))
	require.NoError(t, err)

	list, err := env.Sessions.ListForUser(ctx, client.ID, "")
	require.NoError(t, err)

	got := make([]string, 0, len(list))
	for _, s := range list {
		got = append(got, s.Date+" "+s.Time)
	}
	assert.Equal(t, []string{"2030-06-09 18:00", "2030-06-10 09:00", "2030-06-10 10:00", "2030-06-10 14:30"}, got)
}

func TestSessionUpdateStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	advisor := env.register(t, "a@x.com", models.RoleAdvisor, "Ana", "Pérez", 25)
	client := env.register(t, "c@x.com", models.RoleClient, "Carla", "Soto", 0)
	s, err := env.Sessions.Create(ctx, client.ID, sessionReq(advisor, "2030-06-10", "09:00", 25))
	require.NoError(t, err)

	_, err = env.Sessions.UpdateStatus(ctx, advisor.ID, s.ID, transport.UpdateSessionRequest{Status: "done"})
	require.ErrorIs(t, err, ErrValidation)
	_, err = env.Sessions.UpdateStatus(ctx, advisor.ID, s.ID, transport.UpdateSessionRequest{})
	require.ErrorIs(t, err, ErrValidation)
	_, err = env.Sessions.UpdateStatus(ctx, advisor.ID, uuid.New(), transport.UpdateSessionRequest{Status: models.SessionCompleted})
	require.ErrorIs(t, err, ErrNotFound)

	got, err := env.Sessions.UpdateStatus(ctx, advisor.ID, s.ID, transport.UpdateSessionRequest{
		Status:        models.SessionCompleted,
		PaymentStatus: models.PaymentCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, got.Status)
	assert.Equal(t, models.PaymentCompleted, got.Payment.Status)

	_, err = env.Sessions.UpdateStatus(ctx, advisor.ID, s.ID, transport.UpdateSessionRequest{Status: models.SessionCancelled})
	require.ErrorIs(t, err, ErrConflict)

	same, err := env.Sessions.UpdateStatus(ctx, advisor.ID, s.ID, transport.UpdateSessionRequest{Status: models.SessionCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, same.Status)
}

func TestSessionDelete_EmptiesClientCart(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	advisor := env.register(t, "a@x.com", models.RoleAdvisor, "Ana", "Pérez", 25)
	client := env.register(t, "c@x.com", models.RoleClient, "Carla", "Soto", 0)
	stranger := env.register(t, "s@x.com", models.RoleClient, "", "", 0)

	s, err := env.Sessions.Create(ctx, client.ID, sessionReq(advisor, "2030-06-10", "09:00", 25))
	require.NoError(t, err)
	cart, err := env.Carts.Add(ctx, client.ID, transport.AddToCartRequest{SessionID: s.ID.String()})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	require.ErrorIs(t, env.Sessions.Delete(ctx, stranger.ID, s.ID), ErrForbidden)
	require.NoError(t, env.Sessions.Delete(ctx, client.ID, s.ID))
	require.ErrorIs(t, env.Sessions.Delete(ctx, client.ID, s.ID), ErrNotFound)

	cart, err = env.Carts.Get(ctx, client.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0.0, cart.TotalPrice)
	assert.Contains(t, env.Pub.types(), "session_deleted")
}

func TestSessionRate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	idx := &fakeIndex{}
	env.Sessions.Index = idx
	advisor := env.register(t, "a@x.com", models.RoleAdvisor, "Ana", "Pérez", 25)
	client := env.register(t, "c@x.com", models.RoleClient, "Carla", "Soto", 0)
	s, err := env.Sessions.Create(ctx, client.ID, sessionReq(advisor, "2030-06-10", "09:00", 25))
	require.NoError(t, err)

	_, err = env.Sessions.Rate(ctx, client.ID, s.ID, transport.RateSessionRequest{Score: 6})
	require.ErrorIs(t, err, ErrValidation)
	_, err = env.Sessions.Rate(ctx, client.ID, s.ID, transport.RateSessionRequest{Score: 4})
	require.ErrorIs(t, err, ErrConflict)

	_, err = env.Sessions.UpdateStatus(ctx, advisor.ID, s.ID, transport.UpdateSessionRequest{Status: models.SessionCompleted})
	require.NoError(t, err)

	_, err = env.Sessions.Rate(ctx, advisor.ID, s.ID, transport.RateSessionRequest{Score: 4})
	require.ErrorIs(t, err, ErrForbidden)

	rated, err := env.Sessions.Rate(ctx, client.ID, s.ID, transport.RateSessionRequest{Score: 4, Review: " Muy útil "})
	require.NoError(t, err)
	assert.Equal(t, 4, rated.Rating.Score)
	assert.Equal(t, "Muy útil", rated.Rating.Review)
	assert.Equal(t, []uuid.UUID{advisor.ID}, idx.indexed)

	_, err = env.Sessions.Rate(ctx, client.ID, s.ID, transport.RateSessionRequest{Score: 5})
	require.ErrorIs(t, err, ErrConflict)

	a, err := env.Users.GetByID(ctx, advisor.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, a.Profile.Rating)
	assert.Equal(t, 1, a.Profile.ReviewCount)
}
