package repo

import (
	"context"
	"testing"

	"github.com/asesorame/asesorame/internal/models"
	pkgdb "github.com/asesorame/asesorame/pkg/db"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()

	ctx := context.Background()
	db, err := pkgdb.Open(ctx, pkgdb.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	r := &GormRepo{DB: db}
	require.NoError(t, r.Migrate(ctx))
	return r
}

func mustUser(t *testing.T, r *GormRepo, email, role string, rate float64) *models.User {
	t.Helper()

	u := &models.User{
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		FirstName:    "Test",
		LastName:     role,
	}
	u.Profile.HourlyRate = rate
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func mustSession(t *testing.T, r *GormRepo, advisor, client *models.User, date, tm string, amount float64) *models.Session {
	t.Helper()

	s := &models.Session{
		AdvisorID: advisor.ID,
		ClientID:  client.ID,
		Date:      date,
		Time:      tm,
		Duration:  60,
		Payment:   models.Payment{Amount: amount},
	}
	require.NoError(t, r.CreateSession(context.Background(), s))
	return s
}
