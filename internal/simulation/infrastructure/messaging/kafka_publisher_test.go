package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/wyfcoding/riskengine/internal/simulation/domain"
)

type recordingSender struct {
	topic, key string
	value      any
	err        error
}

func (r *recordingSender) SendMessage(_ context.Context, topic, key string, value any) error {
	r.topic, r.key, r.value = topic, key, value
	return r.err
}

func TestPublishSimulationCompleted(t *testing.T) {
	sender := &recordingSender{}
	p := NewKafkaPublisher(sender, "riskengine.simulations")

	ev := domain.SimulationCompletedEvent{RecordID: "abc", Command: domain.CommandOption, Headline: 8.35}
	if err := p.PublishSimulationCompleted(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	if sender.topic != "riskengine.simulations" || sender.key != "abc" {
		t.Errorf("topic/key = %s/%s", sender.topic, sender.key)
	}
	env, ok := sender.value.(envelope)
	if !ok || env.Type != domain.SimulationCompletedEventType || env.Payload.Headline != 8.35 {
		t.Errorf("unexpected envelope: %#v", sender.value)
	}
}

func TestPublishWrapsSenderError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewKafkaPublisher(&recordingSender{err: boom}, "t")
	err := p.PublishSimulationCompleted(context.Background(), domain.SimulationCompletedEvent{RecordID: "x"})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}
