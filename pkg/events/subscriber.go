package events

import (
	"errors"
	"fmt"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/sub"
)

// Subscriber receives events from a Publisher
type Subscriber struct {
	sock mangos.Socket
}

// NewSubscriber dials addr and subscribes to step and stop events
func NewSubscriber(addr string) (*Subscriber, error) {
	sock, err := sub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}

	for _, topic := range []string{TopicStep, TopicStop} {
		if err := sock.SetOption(mangos.OptionSubscribe, []byte(topic+":")); err != nil {
			sock.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}

	if err := sock.Dial(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	return &Subscriber{sock: sock}, nil
}

// Next blocks until an event arrives or timeout elapses. A non-positive
// timeout waits indefinitely.
func (s *Subscriber) Next(timeout time.Duration) (Event, error) {
	if err := s.sock.SetOption(mangos.OptionRecvDeadline, timeout); err != nil {
		return Event{}, err
	}

	msg, err := s.sock.Recv()
	switch {
	case errors.Is(err, mangos.ErrRecvTimeout):
		return Event{}, ErrTimeout
	case errors.Is(err, mangos.ErrClosed):
		return Event{}, ErrClosed
	case err != nil:
		return Event{}, fmt.Errorf("failed to receive event: %w", err)
	}
	return decode(msg)
}

// Close closes the socket
func (s *Subscriber) Close() error {
	return s.sock.Close()
}
