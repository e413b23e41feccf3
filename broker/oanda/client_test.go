package oanda

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradehook/alert"
	"tradehook/broker"
	"tradehook/intent"
)

func testClient(serverURL string) *Client {
	return &Client{
		practice:    Credentials{APIKey: "test-token", AccountID: "101-001"},
		live:        Credentials{APIKey: "live-token", AccountID: "101-002"},
		practiceURL: serverURL,
		liveURL:     serverURL,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
	}
}

func TestGetBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/v3/accounts/101-001/summary", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"account":{"balance":"100000.0844","currency":"GBP"}}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	balance, err := c.GetBalance(context.Background(), alert.Practice)
	require.NoError(t, err)
	assert.Equal(t, 100000.0844, balance)
}

func TestGetBalanceUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	server.Close() // refuse connections

	c := testClient(server.URL)
	_, err := c.GetBalance(context.Background(), alert.Practice)
	assert.ErrorIs(t, err, broker.ErrUnavailable)
}

func TestGetTick(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/accounts/101-001/pricing", r.URL.Path)
		assert.Equal(t, "GBP_JPY", r.URL.Query().Get("instruments"))

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"prices":[{"instrument":"GBP_JPY","time":"2025-06-02T10:30:00.000000000Z","bids":[{"price":"189.900"}],"asks":[{"price":"190.100"}]}]}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	tick, err := c.GetTick(context.Background(), alert.Practice, "GBP_JPY")
	require.NoError(t, err)
	assert.Equal(t, 189.9, tick.Bid)
	assert.Equal(t, 190.1, tick.Ask)
	assert.InDelta(t, 190.0, tick.Mid(), 1e-9)
}

func TestSubmitEntry(t *testing.T) {
	gtd := time.Date(2025, 6, 2, 10, 45, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/accounts/101-001/orders", r.URL.Path)

		var body map[string]map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		order := body["order"]
		assert.Equal(t, "LIMIT", order["type"])
		assert.Equal(t, "EUR_USD", order["instrument"])
		assert.Equal(t, "289855", order["units"])
		assert.Equal(t, "1.12345", order["price"])
		assert.Equal(t, "GTD", order["timeInForce"])
		assert.Equal(t, "2025-06-02T10:45:00Z", order["gtdTime"])
		assert.Equal(t, map[string]interface{}{"price": "1.12000"}, order["stopLossOnFill"])
		assert.Equal(t, map[string]interface{}{"price": "1.13000"}, order["takeProfitOnFill"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"orderCreateTransaction":{"id":"6789"}}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	receipt, err := c.Submit(context.Background(), intent.Intent{
		Kind:            intent.EntryLong,
		Instrument:      "EUR_USD",
		Mode:            alert.Practice,
		LimitPrice:      1.12345,
		StopLossPrice:   1.12,
		TakeProfitPrice: 1.13,
		Units:           289855,
		GoodTilTime:     gtd,
	})
	require.NoError(t, err)
	assert.Equal(t, "6789", receipt.OrderID)
}

func TestSubmitEntryShortSignsUnits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "-1500", body["order"]["units"])

		w.Write([]byte(`{"orderCreateTransaction":{"id":"42"}}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	_, err := c.Submit(context.Background(), intent.Intent{
		Kind:            intent.EntryShort,
		Instrument:      "EUR_USD",
		Mode:            alert.Practice,
		LimitPrice:      1.12345,
		StopLossPrice:   1.126,
		TakeProfitPrice: 1.12,
		Units:           -1500,
		GoodTilTime:     time.Now(),
	})
	require.NoError(t, err)
}

func TestSubmitEntryRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errorMessage":"MARKET_HALTED"}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	_, err := c.Submit(context.Background(), intent.Intent{
		Kind:        intent.EntryLong,
		Instrument:  "EUR_USD",
		Mode:        alert.Practice,
		Units:       100,
		GoodTilTime: time.Now(),
	})
	assert.ErrorIs(t, err, broker.ErrRejected)
}

func TestSubmitExit(t *testing.T) {
	t.Run("close long sends ALL", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/v3/accounts/101-001/positions/EUR_USD/close", r.URL.Path)

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]string{"longUnits": "ALL"}, body)

			w.Write([]byte(`{"longOrderCreateTransaction":{"id":"77"}}`))
		}))
		defer server.Close()

		c := testClient(server.URL)
		receipt, err := c.Submit(context.Background(), intent.Intent{
			Kind:       intent.ExitLong,
			Instrument: "EUR_USD",
			Mode:       alert.Practice,
		})
		require.NoError(t, err)
		assert.Equal(t, "77", receipt.OrderID)
	})

	t.Run("close short with nothing open passes the refusal through", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"errorCode":"CLOSEOUT_POSITION_DOESNT_EXIST"}`))
		}))
		defer server.Close()

		c := testClient(server.URL)
		_, err := c.Submit(context.Background(), intent.Intent{
			Kind:       intent.ExitShort,
			Instrument: "EUR_USD",
			Mode:       alert.Practice,
		})
		assert.ErrorIs(t, err, broker.ErrRejected)
	})
}

func TestDebugModeNeverSends(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("debug mode must not hit the network")
	}))
	defer server.Close()

	c := testClient(server.URL)
	c.debug = true

	receipt, err := c.Submit(context.Background(), intent.Intent{
		Kind:        intent.EntryLong,
		Instrument:  "EUR_USD",
		Mode:        alert.Practice,
		Units:       100,
		GoodTilTime: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "debug", receipt.OrderID)
}
