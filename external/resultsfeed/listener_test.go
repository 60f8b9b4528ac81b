package resultsfeed

import (
	"context"
	"fmt"
	"testing"

	"github.com/riskibarqy/predictions-league/internal/platform/logging"
	"github.com/riskibarqy/predictions-league/internal/usecase"
	"github.com/streadway/amqp"
)

func TestListenerHandleDelivery_AcksAppliedMessage(t *testing.T) {
	t.Parallel()

	applier := &stubApplier{}
	ack := &recordingAcknowledger{}
	listener := NewListener(ListenerConfig{URL: "amqp://test", Queue: "results", Logger: logging.NewNop()}, applier)

	body := []byte(`{"gameweek":12,"results":[
		{"home_team":" Arsenal ","away_team":"Chelsea","home_score":2,"away_score":1},
		{"home_team":"","away_team":"Wolves","home_score":1,"away_score":1},
		{"home_team":"Leeds","away_team":"Derby","home_score":-1,"away_score":0}
	]}`)
	listener.handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body})

	if ack.op != "ack" {
		t.Fatalf("expected ack, got op=%q requeue=%v", ack.op, ack.requeue)
	}
	if applier.gameweek != 12 {
		t.Fatalf("expected gameweek 12, got %d", applier.gameweek)
	}
	if len(applier.results) != 1 {
		t.Fatalf("expected one usable result after filtering, got %d", len(applier.results))
	}
	if applier.results[0].HomeTeam != "Arsenal" || applier.results[0].Score.Home != 2 {
		t.Fatalf("unexpected applied result: %+v", applier.results[0])
	}
}

func TestListenerHandleDelivery_DropsMalformedPayload(t *testing.T) {
	t.Parallel()

	applier := &stubApplier{}
	ack := &recordingAcknowledger{}
	listener := NewListener(ListenerConfig{URL: "amqp://test", Queue: "results", Logger: logging.NewNop()}, applier)

	listener.handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte(`{broken`)})

	if ack.op != "nack" || ack.requeue {
		t.Fatalf("expected drop without requeue, got op=%q requeue=%v", ack.op, ack.requeue)
	}
	if applier.calls != 0 {
		t.Fatalf("expected applier untouched, got %d calls", applier.calls)
	}
}

func TestListenerHandleDelivery_DropsRejectedMessage(t *testing.T) {
	t.Parallel()

	applier := &stubApplier{err: fmt.Errorf("%w: gameweek must be greater than zero", usecase.ErrInvalidInput)}
	ack := &recordingAcknowledger{}
	listener := NewListener(ListenerConfig{URL: "amqp://test", Queue: "results", Logger: logging.NewNop()}, applier)

	body := []byte(`{"gameweek":0,"results":[{"home_team":"Arsenal","away_team":"Chelsea","home_score":2,"away_score":1}]}`)
	listener.handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body})

	if ack.op != "nack" || ack.requeue {
		t.Fatalf("expected drop without requeue, got op=%q requeue=%v", ack.op, ack.requeue)
	}
}

func TestListenerHandleDelivery_RequeuesOnReadFailure(t *testing.T) {
	t.Parallel()

	applier := &stubApplier{err: fmt.Errorf("list kicked off fixtures: connection refused")}
	ack := &recordingAcknowledger{}
	listener := NewListener(ListenerConfig{URL: "amqp://test", Queue: "results", Logger: logging.NewNop()}, applier)

	body := []byte(`{"gameweek":4,"results":[{"home_team":"Arsenal","away_team":"Chelsea","home_score":2,"away_score":1}]}`)
	listener.handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body})

	if ack.op != "nack" || !ack.requeue {
		t.Fatalf("expected requeue, got op=%q requeue=%v", ack.op, ack.requeue)
	}
}

func TestListenerRun_RequiresConfiguration(t *testing.T) {
	t.Parallel()

	listener := NewListener(ListenerConfig{Logger: logging.NewNop()}, &stubApplier{})
	if err := listener.Run(context.Background()); err == nil {
		t.Fatal("expected error without broker url")
	}

	listener = NewListener(ListenerConfig{URL: "amqp://test", Logger: logging.NewNop()}, &stubApplier{})
	if err := listener.Run(context.Background()); err == nil {
		t.Fatal("expected error without queue name")
	}
}

type stubApplier struct {
	calls    int
	gameweek int
	results  []usecase.ProvidedResult
	err      error
}

func (s *stubApplier) ApplyResults(_ context.Context, gameweek int, results []usecase.ProvidedResult) error {
	s.calls++
	s.gameweek = gameweek
	s.results = results
	return s.err
}

var _ ResultsApplier = (*stubApplier)(nil)

type recordingAcknowledger struct {
	op      string
	requeue bool
}

func (r *recordingAcknowledger) Ack(_ uint64, _ bool) error {
	r.op = "ack"
	return nil
}

func (r *recordingAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	r.op = "nack"
	r.requeue = requeue
	return nil
}

func (r *recordingAcknowledger) Reject(_ uint64, requeue bool) error {
	r.op = "reject"
	r.requeue = requeue
	return nil
}

var _ amqp.Acknowledger = (*recordingAcknowledger)(nil)
