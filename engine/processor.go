package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tradehook/alert"
	"tradehook/broker"
	"tradehook/intent"
	"tradehook/journal"
	"tradehook/notify"
	"tradehook/pkg/id"
	"tradehook/risk"
)

// Processor runs one alert end to end: build the intent, submit it at
// most once, write the audit record, announce the outcome. Each alert is
// an independent unit of work; processing within one alert is strictly
// sequential, across alerts it is concurrent.
type Processor struct {
	gateway  broker.Gateway
	builder  *intent.Builder
	recorder journal.Recorder
	notifier notify.Notifier
}

// New wires a processor. Gateway deadlines are the gateway's own
// concern, see broker.WithCallTimeout.
func New(gateway broker.Gateway, builder *intent.Builder, recorder journal.Recorder, notifier notify.Notifier) *Processor {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Processor{
		gateway:  gateway,
		builder:  builder,
		recorder: recorder,
		notifier: notifier,
	}
}

// Process translates and executes one alert. The returned error reports
// what went wrong for the caller's status mapping; full detail lands in
// the audit record regardless of outcome.
func (p *Processor) Process(ctx context.Context, a alert.Alert) (journal.TradeRecord, error) {
	now := time.Now().UTC()

	it, err := p.builder.Build(ctx, a, now)
	if err != nil {
		rec := p.finish(ctx, record(a, now, it), err)
		return rec, err
	}

	receipt, err := p.gateway.Submit(ctx, it)
	rec := record(a, now, it)
	rec.OrderID = receipt.OrderID
	rec = p.finish(ctx, rec, err)
	return rec, err
}

// record composes the immutable audit row from what is known so far.
func record(a alert.Alert, now time.Time, it intent.Intent) journal.TradeRecord {
	return journal.TradeRecord{
		ID:         id.New(),
		Time:       now,
		Action:     a.Action,
		Instrument: a.Instrument,
		Price:      a.Price,
		StopLoss:   a.StopLossPrice,
		TakeProfit: a.TakeProfitPrice,
		Units:      it.Units,
		Mode:       a.Mode,
		Balance:    it.Balance,
	}
}

// finish stamps the outcome, writes the audit record, and fires the
// notification. Audit and notification use a detached context so an
// already-expired request deadline cannot lose the record.
func (p *Processor) finish(ctx context.Context, rec journal.TradeRecord, procErr error) journal.TradeRecord {
	rec.Status = statusFor(procErr)
	if procErr != nil {
		rec.Detail = procErr.Error()
	}

	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := p.recorder.Record(sinkCtx, rec); err != nil {
		log.Printf("engine: audit record %s not written: %v", rec.ID, err)
	}
	p.notifier.Notify(sinkCtx, summary(rec))
	return rec
}

// statusFor maps the error taxonomy onto record statuses: explicit
// refusals and invalid requests are "rejected", infrastructure failures
// are "error", and only a broker acceptance is "success".
func statusFor(err error) journal.Status {
	switch {
	case err == nil:
		return journal.StatusSuccess
	case errors.Is(err, broker.ErrRejected),
		errors.Is(err, alert.ErrInvalidAlert),
		errors.Is(err, intent.ErrInvalidBracket),
		errors.Is(err, risk.ErrInvalidStopDistance),
		errors.Is(err, risk.ErrZeroUnits):
		return journal.StatusRejected
	default:
		return journal.StatusError
	}
}

func summary(rec journal.TradeRecord) string {
	if rec.Status == journal.StatusSuccess {
		if rec.Units != 0 {
			return fmt.Sprintf("✅ %s %s: %d units @ %s (order %s, %s)",
				rec.Action, rec.Instrument, rec.Units,
				fmt.Sprintf("%.5f", rec.Price), rec.OrderID, rec.Mode)
		}
		return fmt.Sprintf("✅ %s %s (order %s, %s)", rec.Action, rec.Instrument, rec.OrderID, rec.Mode)
	}
	return fmt.Sprintf("❌ %s %s %s: %s", rec.Action, rec.Instrument, rec.Status, rec.Detail)
}
