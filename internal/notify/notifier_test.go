package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/marketfuse/internal/domain"
)

type recordingSender struct {
	name     string
	err      error
	titles   []string
	messages []string
}

func (s *recordingSender) Send(ctx context.Context, title, message string) error {
	if s.err != nil {
		return s.err
	}
	s.titles = append(s.titles, title)
	s.messages = append(s.messages, message)
	return nil
}

func (s *recordingSender) Name() string { return s.name }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyDeliversToAllSenders(t *testing.T) {
	a := &recordingSender{name: "a"}
	b := &recordingSender{name: "b"}
	n := NewNotifier([]Sender{a, b}, nil, discard())

	if err := n.Notify(context.Background(), EventRunCompleted, "title", "body"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(a.titles) != 1 || len(b.titles) != 1 {
		t.Errorf("deliveries: a=%d b=%d, want 1 each", len(a.titles), len(b.titles))
	}
}

func TestNotifyEventFilter(t *testing.T) {
	s := &recordingSender{name: "a"}
	n := NewNotifier([]Sender{s}, []string{EventRunFailed}, discard())

	if err := n.Notify(context.Background(), EventRunCompleted, "t", "m"); err != nil {
		t.Fatalf("Notify filtered event: %v", err)
	}
	if len(s.titles) != 0 {
		t.Errorf("filtered event was delivered: %v", s.titles)
	}

	if err := n.Notify(context.Background(), EventRunFailed, "t", "m"); err != nil {
		t.Fatalf("Notify allowed event: %v", err)
	}
	if len(s.titles) != 1 {
		t.Errorf("allowed event not delivered")
	}
}

func TestNotifySenderFailureIsolated(t *testing.T) {
	broken := &recordingSender{name: "broken", err: errors.New("down")}
	ok := &recordingSender{name: "ok"}
	n := NewNotifier([]Sender{broken, ok}, nil, discard())

	err := n.Notify(context.Background(), EventRunCompleted, "t", "m")
	if err == nil || !strings.Contains(err.Error(), "broken: down") {
		t.Errorf("err = %v, want the failing sender reported", err)
	}
	if len(ok.titles) != 1 {
		t.Errorf("healthy sender skipped after a failure")
	}
}

func TestNotifyNoSenders(t *testing.T) {
	n := NewNotifier(nil, nil, discard())
	if err := n.Notify(context.Background(), EventRunCompleted, "t", "m"); err != nil {
		t.Errorf("Notify with no senders: %v", err)
	}
}

func TestRunCompletedMessage(t *testing.T) {
	s := &recordingSender{name: "a"}
	n := NewNotifier([]Sender{s}, nil, discard())

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	err := n.RunCompleted(context.Background(), domain.RunSummary{
		ID:               "run-1",
		StartedAt:        start,
		FinishedAt:       start.Add(3 * time.Second),
		MarketsCollected: 42,
		UnifiedProducts:  7,
		ErrorCount:       1,
		Pipeline:         "local",
	})
	if err != nil {
		t.Fatalf("RunCompleted: %v", err)
	}
	if s.titles[0] != "Collection run completed" {
		t.Errorf("title = %q", s.titles[0])
	}
	msg := s.messages[0]
	for _, want := range []string{"run-1", "local pipeline", "Markets collected: 42", "Unified products: 7", "Errors: 1", "Duration: 3s"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestRunFailedMessage(t *testing.T) {
	s := &recordingSender{name: "a"}
	n := NewNotifier([]Sender{s}, nil, discard())

	if err := n.RunFailed(context.Background(), "agent", errors.New("all sites failed")); err != nil {
		t.Fatalf("RunFailed: %v", err)
	}
	if s.titles[0] != "Collection run failed" {
		t.Errorf("title = %q", s.titles[0])
	}
	if !strings.Contains(s.messages[0], "all sites failed") {
		t.Errorf("message = %q", s.messages[0])
	}
}
