package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/asesorame/asesorame/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		wantTo string
		want   string
		ok     bool
	}{
		{
			name:   "session created",
			raw:    `{"type":"session_created","advisorID":"a1","date":"2030-06-10","time":"09:00"}`,
			wantTo: "a1",
			want:   "New session booked for 2030-06-10 at 09:00",
			ok:     true,
		},
		{
			name:   "rated",
			raw:    `{"type":"session_rated","advisorID":"a1","score":4}`,
			wantTo: "a1",
			want:   "You received a 4-star rating",
			ok:     true,
		},
		{
			name:   "payment link",
			raw:    `{"type":"payment_link_created","email":"c@x.com","totalPrice":25}`,
			wantTo: "c@x.com",
			want:   "Your payment link for 25 is ready",
			ok:     true,
		},
		{name: "cart event", raw: `{"type":"cart_cleared","userID":"u1"}`},
		{name: "no type", raw: `{}`},
	}

	for _, tt := range tests {
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &ev))

		to, msg, ok := describe(ev)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.wantTo, to, tt.name)
		assert.Equal(t, tt.want, msg, tt.name)
	}
}

func TestNotifyNeverRejects(t *testing.T) {
	t.Parallel()

	h := notify(logging.New("error"))
	require.NoError(t, h(context.Background(), "session_events", map[string]any{"type": "session_deleted"}))
	require.NoError(t, h(context.Background(), "session_events", map[string]any{"type": "unknown"}))
}
