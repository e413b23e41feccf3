package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscordNotify(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	d := NewDiscord(server.URL)
	d.Notify(context.Background(), "Placed BUY order: 289855 EUR_USD")

	assert.Equal(t, "Placed BUY order: 289855 EUR_USD", got["content"])
}

func TestDiscordNotifyFailureIsSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	// Must not panic or return anything; failures are logged only.
	d := NewDiscord(server.URL)
	d.Notify(context.Background(), "message")
}

func TestDiscordUnconfigured(t *testing.T) {
	d := NewDiscord("")
	d.Notify(context.Background(), "message")
}
