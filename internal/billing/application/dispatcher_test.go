package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	billing "sensei-backoffice/internal/billing/domain"
	"sensei-backoffice/internal/messaging/evolution"
)

type sentMessage struct {
	instance string
	number   string
	text     string
}

type fakeGateway struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[string]bool
}

func (g *fakeGateway) SendText(_ context.Context, instance, number, text string) (evolution.SendResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, sentMessage{instance: instance, number: number, text: text})
	if g.failFor[number] {
		return evolution.SendResult{}, errors.New("evolution: http 500: instance closed")
	}
	return evolution.SendResult{MessageID: "m"}, nil
}

func readyCandidate(id, phone string) billing.Candidate {
	return billing.Candidate{EntryID: id, Phone: phone, Message: "msg " + id, Selected: true, Status: billing.StatusPending}
}

func TestDispatcher_SendsEachSelectedOnce(t *testing.T) {
	gateway := &fakeGateway{failFor: map[string]bool{"5511999990002": true}}
	var sleeps []time.Duration
	var transitions []billing.SendStatus
	disp, err := NewDispatcher(gateway, GatewayConfig{CountryCode: "55"},
		WithSleep(func(_ context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		}),
		WithStatusListener(func(c billing.Candidate) {
			if c.EntryID == "e-2" {
				transitions = append(transitions, c.Status)
			}
		}),
	)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	deselected := readyCandidate("e-skip", "11999990009")
	deselected.Selected = false
	alreadySent := readyCandidate("e-done", "11999990008")
	alreadySent.Status = billing.StatusSent

	result := disp.Dispatch(context.Background(), []billing.Candidate{
		readyCandidate("e-1", "(11) 99999-0001"),
		deselected,
		readyCandidate("e-2", "11 99999-0002"),
		alreadySent,
		readyCandidate("e-3", "+55 11 99999-0003"),
	})

	if len(gateway.sent) != 3 {
		t.Fatalf("expected 3 gateway calls, got %d", len(gateway.sent))
	}
	for _, msg := range gateway.sent {
		if msg.instance != evolution.DefaultInstance {
			t.Fatalf("unexpected instance %q", msg.instance)
		}
	}
	if gateway.sent[0].number != "5511999990001" || gateway.sent[2].number != "5511999990003" {
		t.Fatalf("unexpected numbers: %+v", gateway.sent)
	}
	if result.Sent != 2 || result.Failed != 1 || result.Remaining != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	statuses := map[string]billing.SendStatus{}
	for _, c := range result.Candidates {
		statuses[c.EntryID] = c.Status
	}
	if statuses["e-1"] != billing.StatusSent || statuses["e-2"] != billing.StatusError || statuses["e-3"] != billing.StatusSent {
		t.Fatalf("unexpected statuses: %v", statuses)
	}
	if statuses["e-skip"] != billing.StatusPending || statuses["e-done"] != billing.StatusSent {
		t.Fatalf("untouched candidates changed: %v", statuses)
	}
	if len(transitions) != 2 || transitions[0] != billing.StatusSending || transitions[1] != billing.StatusError {
		t.Fatalf("unexpected transitions for e-2: %v", transitions)
	}
	if len(sleeps) != 3 || sleeps[0] != DefaultSendDelay {
		t.Fatalf("expected a %v pause after each send, got %v", DefaultSendDelay, sleeps)
	}
}

func TestDispatcher_CancelLeavesRestPending(t *testing.T) {
	gateway := &fakeGateway{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	disp, err := NewDispatcher(gateway, GatewayConfig{Instance: "dojo"},
		WithDelay(10*time.Millisecond),
		WithSleep(func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		}),
	)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	result := disp.Dispatch(ctx, []billing.Candidate{
		readyCandidate("e-1", "11999990001"),
		readyCandidate("e-2", "11999990002"),
		readyCandidate("e-3", "11999990003"),
	})
	if len(gateway.sent) != 1 || gateway.sent[0].instance != "dojo" {
		t.Fatalf("expected a single send before cancel, got %+v", gateway.sent)
	}
	if result.Sent != 1 || result.Remaining != 2 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if result.Candidates[1].Status != billing.StatusPending || result.Candidates[2].Status != billing.StatusPending {
		t.Fatalf("unsent candidates must stay pending: %+v", result.Candidates)
	}
}

func TestNewDispatcher_NilGateway(t *testing.T) {
	if _, err := NewDispatcher(nil, GatewayConfig{}); !errors.Is(err, billing.ErrGatewayNotConfigured) {
		t.Fatalf("expected ErrGatewayNotConfigured, got %v", err)
	}
}
