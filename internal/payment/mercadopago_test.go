package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePreference_Success(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var p Preference
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, "approved", p.AutoReturn)
		require.Len(t, p.Items, 1)
		assert.Equal(t, "CLP", p.Items[0].CurrencyID)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pref-1","init_point":"https://mp.example/checkout?pref=1"}`))
	}))
	defer srv.Close()

	mp := NewMercadoPago(srv.URL, "tok")
	out, err := mp.CreatePreference(context.Background(), Preference{
		Items:      []Item{{Title: "Asesoría con Ana", Quantity: 1, UnitPrice: 50, CurrencyID: "CLP"}},
		AutoReturn: "approved",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://mp.example/checkout?pref=1", out.InitPoint)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCreatePreference_UpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid items"}`))
	}))
	defer srv.Close()

	_, err := NewMercadoPago(srv.URL, "tok").CreatePreference(context.Background(), Preference{})
	require.ErrorIs(t, err, ErrUpstream)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusBadRequest, ue.Status)
	assert.Contains(t, ue.Body, "invalid items")
}

func TestCreatePreference_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewMercadoPago(url, "tok").CreatePreference(context.Background(), Preference{})
	require.ErrorIs(t, err, ErrUpstream)
}
