package events

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dd0wney/opinion-diffusion/pkg/diffusion"
	"github.com/dd0wney/opinion-diffusion/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var addrSeq atomic.Int64

func testAddr() string {
	return fmt.Sprintf("inproc://events-test-%d", addrSeq.Add(1))
}

func connectedPair(t *testing.T, reg *metrics.Registry) (*Publisher, *Subscriber) {
	t.Helper()

	addr := testAddr()
	p, err := NewPublisher(addr, nil, reg)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	s, err := NewSubscriber(addr)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	// PUB drops messages until the subscriber pipe is attached
	for i := 0; i < 100; i++ {
		p.OnStep(diffusion.StepSummary{Step: -1})
		if _, err := s.Next(20 * time.Millisecond); err == nil {
			return p, s
		}
	}
	t.Fatal("subscriber never connected")
	return nil, nil
}

// nextReal skips warm-up events still queued from connectedPair
func nextReal(t *testing.T, s *Subscriber) Event {
	t.Helper()
	for {
		ev, err := s.Next(2 * time.Second)
		require.NoError(t, err)
		if ev.Step != nil && ev.Step.Step == -1 {
			continue
		}
		return ev
	}
}

func TestPublishSubscribe(t *testing.T) {
	reg := metrics.NewRegistry()
	p, s := connectedPair(t, reg)

	p.OnStep(diffusion.StepSummary{Step: 3, Influenced: 2, Mean: 0.25, Min: 0, Max: 1})
	ev := nextReal(t, s)
	assert.Equal(t, TopicStep, ev.Topic)
	require.NotNil(t, ev.Step)
	assert.Equal(t, diffusion.StepSummary{Step: 3, Influenced: 2, Mean: 0.25, Min: 0, Max: 1}, *ev.Step)

	p.OnStop(&diffusion.Result{
		RunID:      "run-1",
		Seed:       7,
		Steps:      3,
		StopReason: diffusion.StopExtinction,
		Final:      diffusion.StepSummary{Step: 3},
	})
	ev = nextReal(t, s)
	assert.Equal(t, TopicStop, ev.Topic)
	require.NotNil(t, ev.Stop)
	assert.Equal(t, "run-1", ev.Stop.RunID)
	assert.Equal(t, diffusion.StopExtinction, ev.Stop.StopReason)

	assert.GreaterOrEqual(t, testutil.ToFloat64(reg.EventsPublishedTotal.WithLabelValues(TopicStep, "ok")), 2.0)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.EventsPublishedTotal.WithLabelValues(TopicStop, "ok")))
}

func TestPublisherAsObserver(t *testing.T) {
	p, s := connectedPair(t, nil)

	cfg := diffusion.DefaultConfig().WithSeed(3)
	cfg.Size = 30
	cfg.InitialInfluencedShare = 1
	cfg.Steps = 2

	e, err := diffusion.New(cfg, diffusion.WithObserver(p))
	require.NoError(t, err)
	_, err = e.Run()
	require.NoError(t, err)

	var topics []string
	for len(topics) < 3 {
		topics = append(topics, nextReal(t, s).Topic)
	}
	assert.Equal(t, []string{TopicStep, TopicStep, TopicStop}, topics)
}

func TestPublisher_ClosedDropsEvents(t *testing.T) {
	reg := metrics.NewRegistry()
	p, err := NewPublisher(testAddr(), nil, reg)
	require.NoError(t, err)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	p.OnStep(diffusion.StepSummary{Step: 1})
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.EventsPublishedTotal.WithLabelValues(TopicStep, "error")))
}

func TestSubscriber_Timeout(t *testing.T) {
	addr := testAddr()
	p, err := NewPublisher(addr, nil, nil)
	require.NoError(t, err)
	defer p.Close()

	s, err := NewSubscriber(addr)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Next(10 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestDecode(t *testing.T) {
	msg, err := encode(TopicStep, diffusion.StepSummary{Step: 9})
	require.NoError(t, err)
	assert.Equal(t, `step:{"step":9,"influenced":0,"mean":0,"min":0,"max":0}`, string(msg))

	ev, err := decode(msg)
	require.NoError(t, err)
	assert.Equal(t, 9, ev.Step.Step)

	_, err = decode([]byte("noise"))
	assert.ErrorIs(t, err, ErrUnknownTopic)

	_, err = decode([]byte("other:{}"))
	assert.ErrorIs(t, err, ErrUnknownTopic)
}
