package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradehook/alert"
	"tradehook/broker"
	"tradehook/intent"
	"tradehook/journal"
	"tradehook/market"
)

type fakeGateway struct {
	balance     float64
	balanceErr  error
	tick        market.Tick
	submitErr   error
	receipt     broker.Receipt
	submitted   []intent.Intent
	balanceHits int
}

func (g *fakeGateway) GetBalance(_ context.Context, _ alert.Mode) (float64, error) {
	g.balanceHits++
	return g.balance, g.balanceErr
}

func (g *fakeGateway) GetTick(_ context.Context, _ alert.Mode, instrument string) (market.Tick, error) {
	return g.tick, nil
}

func (g *fakeGateway) Submit(_ context.Context, it intent.Intent) (broker.Receipt, error) {
	g.submitted = append(g.submitted, it)
	return g.receipt, g.submitErr
}

type captureSink struct {
	records []journal.TradeRecord
}

func (s *captureSink) Record(_ context.Context, rec journal.TradeRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *captureSink) Close() error { return nil }

type captureNotifier struct {
	messages []string
}

func (n *captureNotifier) Notify(_ context.Context, msg string) {
	n.messages = append(n.messages, msg)
}

func newProcessor(gw *fakeGateway, sink *captureSink, notif *captureNotifier) *Processor {
	g := broker.WithCallTimeout(gw, time.Second)
	b := intent.NewBuilder(g, "USD", 0.01)
	return New(g, b, sink, notif)
}

func openLongAlert() alert.Alert {
	return alert.Alert{
		Action:          alert.OpenLong,
		Instrument:      "EUR_USD",
		Price:           1.12345,
		StopLossPrice:   1.12000,
		TakeProfitPrice: 1.13000,
		Mode:            alert.Practice,
	}
}

func TestProcessEntrySuccess(t *testing.T) {
	gw := &fakeGateway{balance: 100000, receipt: broker.Receipt{OrderID: "6789"}}
	sink := &captureSink{}
	notif := &captureNotifier{}
	p := newProcessor(gw, sink, notif)

	rec, err := p.Process(context.Background(), openLongAlert())
	require.NoError(t, err)

	require.Len(t, gw.submitted, 1)
	assert.Equal(t, 289855, gw.submitted[0].Units)

	assert.Equal(t, journal.StatusSuccess, rec.Status)
	assert.Equal(t, "6789", rec.OrderID)
	assert.Equal(t, 100000.0, rec.Balance)
	assert.NotEmpty(t, rec.ID)

	require.Len(t, sink.records, 1)
	assert.Equal(t, rec, sink.records[0])
	require.Len(t, notif.messages, 1)
	assert.Contains(t, notif.messages[0], "EUR_USD")
	assert.Contains(t, notif.messages[0], "289855")
}

func TestProcessBalanceFetchFailure(t *testing.T) {
	// Scenario: balance fetch times out → nothing submitted, record is
	// "error", audit sink still written.
	gw := &fakeGateway{balanceErr: fmt.Errorf("%w: timeout", broker.ErrUnavailable)}
	sink := &captureSink{}
	p := newProcessor(gw, sink, &captureNotifier{})

	rec, err := p.Process(context.Background(), openLongAlert())
	assert.ErrorIs(t, err, intent.ErrAccountUnavailable)

	assert.Empty(t, gw.submitted, "no submission after a failed balance fetch")
	assert.Equal(t, journal.StatusError, rec.Status)
	require.Len(t, sink.records, 1)
	assert.Equal(t, journal.StatusError, sink.records[0].Status)
	assert.NotEmpty(t, sink.records[0].Detail)
}

func TestProcessInvalidBracket(t *testing.T) {
	gw := &fakeGateway{balance: 100000}
	sink := &captureSink{}
	p := newProcessor(gw, sink, &captureNotifier{})

	a := openLongAlert()
	a.StopLossPrice = 1.13500 // above entry

	rec, err := p.Process(context.Background(), a)
	assert.ErrorIs(t, err, intent.ErrInvalidBracket)
	assert.Zero(t, gw.balanceHits, "rejected before any gateway call")
	assert.Empty(t, gw.submitted)
	assert.Equal(t, journal.StatusRejected, rec.Status)
	require.Len(t, sink.records, 1)
}

func TestProcessGatewayRejection(t *testing.T) {
	gw := &fakeGateway{
		balance:   100000,
		submitErr: fmt.Errorf("%w: MARKET_HALTED", broker.ErrRejected),
	}
	sink := &captureSink{}
	p := newProcessor(gw, sink, &captureNotifier{})

	rec, err := p.Process(context.Background(), openLongAlert())
	assert.ErrorIs(t, err, broker.ErrRejected)
	assert.Equal(t, journal.StatusRejected, rec.Status)
	assert.Contains(t, rec.Detail, "MARKET_HALTED")
}

func TestProcessExitWithNoOpenPositions(t *testing.T) {
	// Scenario: close on a flat instrument is still submitted; the
	// broker's refusal passes through, never pre-empted.
	gw := &fakeGateway{submitErr: fmt.Errorf("%w: CLOSEOUT_POSITION_DOESNT_EXIST", broker.ErrRejected)}
	sink := &captureSink{}
	p := newProcessor(gw, sink, &captureNotifier{})

	rec, err := p.Process(context.Background(), alert.Alert{
		Action:     alert.CloseLong,
		Instrument: "EUR_USD",
		Mode:       alert.Practice,
	})
	assert.ErrorIs(t, err, broker.ErrRejected)
	require.Len(t, gw.submitted, 1, "exit submitted despite flat position")
	assert.Equal(t, intent.ExitLong, gw.submitted[0].Kind)
	assert.Equal(t, journal.StatusRejected, rec.Status)
}

func TestProcessExitSuccess(t *testing.T) {
	gw := &fakeGateway{receipt: broker.Receipt{OrderID: "77"}}
	sink := &captureSink{}
	notif := &captureNotifier{}
	p := newProcessor(gw, sink, notif)

	rec, err := p.Process(context.Background(), alert.Alert{
		Action:     alert.CloseShort,
		Instrument: "GBP_JPY",
		Mode:       alert.Live,
	})
	require.NoError(t, err)
	assert.Zero(t, gw.balanceHits, "exits never fetch equity")
	assert.Equal(t, journal.StatusSuccess, rec.Status)
	assert.Zero(t, rec.Units)
	assert.Zero(t, rec.Price)
}

func TestProcessRecordsEvenWhenSinkDegrades(t *testing.T) {
	gw := &fakeGateway{balance: 100000}
	p := New(gw, intent.NewBuilder(gw, "USD", 0.01), failingSink{}, &captureNotifier{})

	// A failing sink must not turn a successful trade into an error.
	rec, err := p.Process(context.Background(), openLongAlert())
	require.NoError(t, err)
	assert.Equal(t, journal.StatusSuccess, rec.Status)
}

type failingSink struct{}

func (failingSink) Record(context.Context, journal.TradeRecord) error {
	return errors.New("sink down")
}

func (failingSink) Close() error { return nil }
