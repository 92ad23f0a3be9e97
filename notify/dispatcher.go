package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	queueSize   = 64
	workerCount = 2
	sendTimeout = 30 * time.Second
)

// Dispatcher sends mail in the background. A full queue drops the message.
type Dispatcher struct {
	mailer *Mailer
	log    *slog.Logger
	queue  chan Message
	wg     sync.WaitGroup
	once   sync.Once
}

func NewDispatcher(m *Mailer, log *slog.Logger) *Dispatcher {
	d := &Dispatcher{mailer: m, log: log, queue: make(chan Message, queueSize)}
	for i := 0; i < workerCount; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := d.mailer.Send(ctx, msg); err != nil {
			d.log.Warn("background mail failed", "to", msg.To, "subject", msg.Subject, "error", err)
		}
		cancel()
	}
}

// Enqueue never blocks
func (d *Dispatcher) Enqueue(msg Message) bool {
	select {
	case d.queue <- msg:
		return true
	default:
		d.log.Warn("mail queue full, dropping message", "to", msg.To)
		return false
	}
}

// Close drains the queue and waits for in-flight sends
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.queue) })
	d.wg.Wait()
}
