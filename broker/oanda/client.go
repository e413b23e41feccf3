package oanda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tradehook/alert"
	"tradehook/broker"
	"tradehook/intent"
	"tradehook/market"
)

const (
	// PracticeURL is the base URL for OANDA's practice/demo environment
	PracticeURL = "https://api-fxpractice.oanda.com"
	// LiveURL is the base URL for OANDA's live trading environment
	LiveURL = "https://api-fxtrade.oanda.com"
)

// Credentials is one API key / account pair. Practice and live use
// separate pairs against separate hosts.
type Credentials struct {
	APIKey    string
	AccountID string
}

// Config selects credentials per trading mode. With Debug set the client
// logs order payloads instead of sending them, returning a synthetic
// receipt — useful while wiring up a new alert source.
type Config struct {
	Practice Credentials
	Live     Credentials
	Debug    bool
	Timeout  time.Duration
}

// Client implements broker.Gateway against the OANDA v3 REST API.
type Client struct {
	practice    Credentials
	live        Credentials
	practiceURL string
	liveURL     string
	debug       bool
	httpClient  *http.Client
}

var _ broker.Gateway = (*Client)(nil)

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		practice:    cfg.Practice,
		live:        cfg.Live,
		practiceURL: PracticeURL,
		liveURL:     LiveURL,
		debug:       cfg.Debug,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) binding(mode alert.Mode) (Credentials, string, error) {
	switch mode {
	case alert.Live:
		if c.live.APIKey == "" || c.live.AccountID == "" {
			return Credentials{}, "", fmt.Errorf("live credentials not configured")
		}
		return c.live, c.liveURL, nil
	default:
		if c.practice.APIKey == "" || c.practice.AccountID == "" {
			return Credentials{}, "", fmt.Errorf("practice credentials not configured")
		}
		return c.practice, c.practiceURL, nil
	}
}

type accountSummaryResponse struct {
	Account struct {
		Balance  string `json:"balance"`
		Currency string `json:"currency"`
	} `json:"account"`
}

// GetBalance fetches current account equity. Never cached: equity moves
// with every trade, so each entry sizes against a fresh snapshot.
func (c *Client) GetBalance(ctx context.Context, mode alert.Mode) (float64, error) {
	creds, base, err := c.binding(mode)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", broker.ErrUnavailable, err)
	}

	path := fmt.Sprintf("%s/v3/accounts/%s/summary", base, creds.AccountID)
	var resp accountSummaryResponse
	if err := c.get(ctx, creds, path, nil, &resp); err != nil {
		return 0, err
	}

	balance, err := strconv.ParseFloat(resp.Account.Balance, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: parse balance %q: %v", broker.ErrUnavailable, resp.Account.Balance, err)
	}
	return balance, nil
}

type pricingResponse struct {
	Prices []struct {
		Instrument string `json:"instrument"`
		Time       string `json:"time"`
		Bids       []struct {
			Price string `json:"price"`
		} `json:"bids"`
		Asks []struct {
			Price string `json:"price"`
		} `json:"asks"`
	} `json:"prices"`
}

// GetTick fetches the current bid/ask for one instrument via the pricing
// endpoint.
func (c *Client) GetTick(ctx context.Context, mode alert.Mode, instrument string) (market.Tick, error) {
	creds, base, err := c.binding(mode)
	if err != nil {
		return market.Tick{}, fmt.Errorf("%w: %v", broker.ErrUnavailable, err)
	}

	path := fmt.Sprintf("%s/v3/accounts/%s/pricing", base, creds.AccountID)
	var resp pricingResponse
	if err := c.get(ctx, creds, path, url.Values{"instruments": {instrument}}, &resp); err != nil {
		return market.Tick{}, err
	}

	for _, p := range resp.Prices {
		if p.Instrument != instrument || len(p.Bids) == 0 || len(p.Asks) == 0 {
			continue
		}
		bid, err1 := strconv.ParseFloat(p.Bids[0].Price, 64)
		ask, err2 := strconv.ParseFloat(p.Asks[0].Price, 64)
		if err1 != nil || err2 != nil {
			return market.Tick{}, fmt.Errorf("%w: unparsable prices for %s", broker.ErrUnavailable, instrument)
		}
		tick := market.Tick{Instrument: instrument, Bid: bid, Ask: ask}
		if ts, err := time.Parse(time.RFC3339Nano, p.Time); err == nil {
			tick.Time = ts
		}
		return tick, nil
	}
	return market.Tick{}, fmt.Errorf("%w: instrument %s not in pricing response", broker.ErrUnavailable, instrument)
}

// Submit places the order. At most one attempt: a failure here is
// reported, never retried, since a blind retry on order placement risks
// duplicate exposure.
func (c *Client) Submit(ctx context.Context, it intent.Intent) (broker.Receipt, error) {
	if it.Kind.IsEntry() {
		return c.submitEntry(ctx, it)
	}
	return c.submitExit(ctx, it)
}

type bracketOrder struct {
	Price string `json:"price"`
}

type orderBody struct {
	Order struct {
		Type             string        `json:"type"`
		Instrument       string        `json:"instrument"`
		Units            string        `json:"units"`
		Price            string        `json:"price"`
		TimeInForce      string        `json:"timeInForce"`
		GTDTime          string        `json:"gtdTime"`
		PositionFill     string        `json:"positionFill"`
		StopLossOnFill   *bracketOrder `json:"stopLossOnFill,omitempty"`
		TakeProfitOnFill *bracketOrder `json:"takeProfitOnFill,omitempty"`
	} `json:"order"`
}

type orderCreateResponse struct {
	OrderCreateTransaction struct {
		ID string `json:"id"`
	} `json:"orderCreateTransaction"`
	OrderRejectTransaction *struct {
		RejectReason string `json:"rejectReason"`
	} `json:"orderRejectTransaction"`
}

func (c *Client) submitEntry(ctx context.Context, it intent.Intent) (broker.Receipt, error) {
	creds, base, err := c.binding(it.Mode)
	if err != nil {
		return broker.Receipt{}, fmt.Errorf("%w: %v", broker.ErrUnavailable, err)
	}

	var body orderBody
	body.Order.Type = "LIMIT"
	body.Order.Instrument = it.Instrument
	body.Order.Units = strconv.Itoa(it.Units)
	body.Order.Price = market.FormatPrice(it.Instrument, it.LimitPrice)
	body.Order.TimeInForce = "GTD"
	body.Order.GTDTime = it.GoodTilTime.UTC().Format(time.RFC3339)
	body.Order.PositionFill = "DEFAULT"
	body.Order.StopLossOnFill = &bracketOrder{Price: market.FormatPrice(it.Instrument, it.StopLossPrice)}
	body.Order.TakeProfitOnFill = &bracketOrder{Price: market.FormatPrice(it.Instrument, it.TakeProfitPrice)}

	if c.debug {
		payload, _ := json.MarshalIndent(body, "", "  ")
		log.Printf("oanda: debug mode, order not sent:\n%s", payload)
		return broker.Receipt{OrderID: "debug"}, nil
	}

	path := fmt.Sprintf("%s/v3/accounts/%s/orders", base, creds.AccountID)
	var resp orderCreateResponse
	if err := c.do(ctx, creds, http.MethodPost, path, body, &resp); err != nil {
		return broker.Receipt{}, err
	}
	if resp.OrderRejectTransaction != nil {
		return broker.Receipt{}, fmt.Errorf("%w: %s", broker.ErrRejected, resp.OrderRejectTransaction.RejectReason)
	}
	return broker.Receipt{OrderID: resp.OrderCreateTransaction.ID}, nil
}

type closeBody struct {
	LongUnits  string `json:"longUnits,omitempty"`
	ShortUnits string `json:"shortUnits,omitempty"`
}

type closeResponse struct {
	LongOrderCreateTransaction *struct {
		ID string `json:"id"`
	} `json:"longOrderCreateTransaction"`
	ShortOrderCreateTransaction *struct {
		ID string `json:"id"`
	} `json:"shortOrderCreateTransaction"`
}

func (c *Client) submitExit(ctx context.Context, it intent.Intent) (broker.Receipt, error) {
	creds, base, err := c.binding(it.Mode)
	if err != nil {
		return broker.Receipt{}, fmt.Errorf("%w: %v", broker.ErrUnavailable, err)
	}

	// Close everything on one side. No pre-check for open positions:
	// the broker's response is the answer, and a check would race the
	// close anyway.
	var body closeBody
	if it.Kind == intent.ExitLong {
		body.LongUnits = "ALL"
	} else {
		body.ShortUnits = "ALL"
	}

	if c.debug {
		payload, _ := json.MarshalIndent(body, "", "  ")
		log.Printf("oanda: debug mode, close not sent:\n%s", payload)
		return broker.Receipt{OrderID: "debug"}, nil
	}

	path := fmt.Sprintf("%s/v3/accounts/%s/positions/%s/close", base, creds.AccountID, it.Instrument)
	var resp closeResponse
	if err := c.do(ctx, creds, http.MethodPut, path, body, &resp); err != nil {
		return broker.Receipt{}, err
	}
	if resp.LongOrderCreateTransaction != nil {
		return broker.Receipt{OrderID: resp.LongOrderCreateTransaction.ID}, nil
	}
	if resp.ShortOrderCreateTransaction != nil {
		return broker.Receipt{OrderID: resp.ShortOrderCreateTransaction.ID}, nil
	}
	return broker.Receipt{}, nil
}

func (c *Client) get(ctx context.Context, creds Credentials, rawURL string, query url.Values, out interface{}) error {
	if query != nil {
		rawURL = rawURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", broker.ErrUnavailable, err)
	}
	return c.send(req, creds, out)
}

func (c *Client) do(ctx context.Context, creds Credentials, method, rawURL string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", broker.ErrUnavailable, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", broker.ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, creds, out)
}

func (c *Client) send(req *http.Request, creds Credentials, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+creds.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", broker.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if resp.StatusCode < 500 {
			return fmt.Errorf("%w: http %d: %s", broker.ErrRejected, resp.StatusCode, string(b))
		}
		return fmt.Errorf("%w: http %d: %s", broker.ErrUnavailable, resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", broker.ErrUnavailable, err)
	}
	return nil
}
