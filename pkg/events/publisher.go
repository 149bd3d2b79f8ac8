package events

import (
	"fmt"
	"sync"

	"github.com/dd0wney/opinion-diffusion/pkg/diffusion"
	"github.com/dd0wney/opinion-diffusion/pkg/logging"
	"github.com/dd0wney/opinion-diffusion/pkg/metrics"
	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"
)

// Publisher broadcasts engine progress on a PUB socket. Sends are best-effort:
// a failed send is logged and counted, never returned to the engine.
type Publisher struct {
	sock    mangos.Socket
	addr    string
	logger  logging.Logger
	metrics *metrics.Registry

	mu     sync.Mutex
	closed bool
}

var _ diffusion.Observer = (*Publisher)(nil)

// NewPublisher binds a PUB socket to addr, e.g. "tcp://127.0.0.1:40899" or
// "inproc://sim". logger and reg may be nil.
func NewPublisher(addr string, logger logging.Logger, reg *metrics.Registry) (*Publisher, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to bind PUB socket to %s: %w", addr, err)
	}

	logger = logger.With(logging.Component("events"), logging.String("addr", addr))
	logger.Info("event publisher started")

	return &Publisher{sock: sock, addr: addr, logger: logger, metrics: reg}, nil
}

// Addr returns the bound address
func (p *Publisher) Addr() string {
	return p.addr
}

// OnStep publishes a step summary
func (p *Publisher) OnStep(summary diffusion.StepSummary) {
	p.publish(TopicStep, summary)
}

// OnStop publishes the run header
func (p *Publisher) OnStop(result *diffusion.Result) {
	p.publish(TopicStop, newStopEvent(result))
}

func (p *Publisher) publish(topic string, payload any) {
	err := p.send(topic, payload)
	if p.metrics != nil {
		p.metrics.RecordEvent(topic, err)
	}
	if err != nil {
		p.logger.Warn("failed to publish event", logging.String("topic", topic), logging.Error(err))
	}
}

func (p *Publisher) send(topic string, payload any) error {
	msg, err := encode(topic, payload)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	return p.sock.Send(msg)
}

// Close closes the socket. Further events are dropped.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.logger.Info("event publisher stopped")
	return p.sock.Close()
}
