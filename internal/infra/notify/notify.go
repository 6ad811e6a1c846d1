package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var ErrClosed = errors.New("notify: dispatcher closed")

type Message struct {
	To      []string
	Subject string
	Text    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender is used when SES is not configured.
type LogSender struct {
	Log zerolog.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	s.Log.Info().
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Msg("notification (email delivery disabled)")
	return nil
}

// Dispatcher delivers messages on a single background worker. Delivery is
// best effort: failures are logged and a full queue drops the message.
type Dispatcher struct {
	sender      Sender
	queue       chan Message
	sendTimeout time.Duration
	log         zerolog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(sender Sender, size int, log zerolog.Logger) *Dispatcher {
	if size <= 0 {
		size = 64
	}
	d := &Dispatcher{
		sender:      sender,
		queue:       make(chan Message, size),
		sendTimeout: 15 * time.Second,
		log:         log.With().Str("component", "notify").Logger(),
		done:        make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
		if err := d.sender.Send(ctx, msg); err != nil {
			d.log.Error().Err(err).Str("subject", msg.Subject).Msg("notification delivery failed")
		}
		cancel()
	}
}

// Enqueue never blocks. It reports whether the message was accepted.
func (d *Dispatcher) Enqueue(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- msg:
		return true
	default:
		d.log.Warn().Str("subject", msg.Subject).Msg("notification queue full, dropping message")
		return false
	}
}

// Close stops accepting messages and waits for the queue to drain.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
