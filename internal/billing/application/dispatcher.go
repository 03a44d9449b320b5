package application

import (
	"context"
	"errors"
	"log"
	"time"

	billing "sensei-backoffice/internal/billing/domain"
	"sensei-backoffice/internal/messaging/evolution"
	"sensei-backoffice/internal/observability/metrics"
)

// Gateway sends WhatsApp text messages.
type Gateway interface {
	SendText(ctx context.Context, instance, number, text string) (evolution.SendResult, error)
}

// Dispatcher sends a batch of candidates one at a time.
type Dispatcher struct {
	gateway     Gateway
	instance    string
	countryCode string
	delay       time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	onUpdate    func(billing.Candidate)
	logger      *log.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDelay sets the pause after each send.
func WithDelay(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		if d >= 0 {
			disp.delay = d
		}
	}
}

// WithSleep replaces the pacing sleep.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) DispatcherOption {
	return func(disp *Dispatcher) {
		if fn != nil {
			disp.sleep = fn
		}
	}
}

// WithStatusListener observes every status transition.
func WithStatusListener(fn func(billing.Candidate)) DispatcherOption {
	return func(disp *Dispatcher) { disp.onUpdate = fn }
}

// WithDispatchLogger sets the logger.
func WithDispatchLogger(logger *log.Logger) DispatcherOption {
	return func(disp *Dispatcher) { disp.logger = logger }
}

// NewDispatcher constructs a Dispatcher for the configured gateway instance.
func NewDispatcher(gateway Gateway, cfg GatewayConfig, opts ...DispatcherOption) (*Dispatcher, error) {
	if gateway == nil {
		return nil, billing.ErrGatewayNotConfigured
	}
	d := &Dispatcher{
		gateway:     gateway,
		instance:    cfg.Instance,
		countryCode: cfg.CountryCode,
		delay:       DefaultSendDelay,
		sleep:       sleepContext,
	}
	if d.instance == "" {
		d.instance = evolution.DefaultInstance
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d, nil
}

// Dispatch sends every ready candidate in order. A failed send only marks
// that candidate; cancelling ctx leaves the unsent ones pending.
func (d *Dispatcher) Dispatch(ctx context.Context, candidates []billing.Candidate) billing.BatchResult {
	result := billing.BatchResult{Candidates: append([]billing.Candidate(nil), candidates...)}
	stopped := false
	for i := range result.Candidates {
		c := &result.Candidates[i]
		if !c.Ready() {
			continue
		}
		if stopped || ctx.Err() != nil {
			stopped = true
			result.Remaining++
			continue
		}

		c.Status = billing.StatusSending
		d.notify(*c)
		if err := d.send(ctx, *c); err != nil {
			c.Status = billing.StatusError
			c.Error = err.Error()
			result.Failed++
			if d.logger != nil {
				d.logger.Printf("billing send error: entry=%s err=%v", c.EntryID, err)
			}
		} else {
			c.Status = billing.StatusSent
			result.Sent++
		}
		d.notify(*c)

		if err := d.sleep(ctx, d.delay); err != nil {
			stopped = true
		}
	}
	return result
}

func (d *Dispatcher) send(ctx context.Context, c billing.Candidate) error {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveMessageSend(metrics.SourceBatch, result, time.Since(start))
	}()
	number := evolution.NormalizePhone(c.Phone, d.countryCode)
	if number == "" {
		result = metrics.ResultError
		return errors.New("billing: phone has no digits")
	}
	if _, err := d.gateway.SendText(ctx, d.instance, number, c.Message); err != nil {
		result = metrics.ResultError
		return err
	}
	return nil
}

func (d *Dispatcher) notify(c billing.Candidate) {
	if d.onUpdate != nil {
		d.onUpdate(c)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
