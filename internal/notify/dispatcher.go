// Package notify delivers in-app notifications. The dispatcher persists
// each notification and pushes it to the recipient over WebSocket when
// they are connected. Delivery is best-effort: producers never block and
// never see delivery errors.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"bloodlink-api-server/internal/models"
	"bloodlink-api-server/internal/socket"

	"go.uber.org/zap"
)

// Store is the persistence slice the dispatcher needs.
type Store interface {
	Insert(ctx context.Context, n *models.Notification) error
}

// Dispatcher fans notifications out through a buffered queue so the state
// changes that produce them never wait on storage or the network.
type Dispatcher struct {
	store Store
	hub   *socket.Hub
	log   *zap.Logger

	mu      sync.Mutex
	stopped bool
	queue   chan models.Notification
	done    chan struct{}
}

func NewDispatcher(store Store, hub *socket.Hub, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		store: store,
		hub:   hub,
		log:   log,
		queue: make(chan models.Notification, 256),
		done:  make(chan struct{}),
	}
}

// Start launches the delivery worker.
func (d *Dispatcher) Start() {
	go d.run()
}

// Stop drains the queue and waits for the worker to exit. Safe to call
// more than once.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
}

// Notify enqueues a notification. When the queue is full, or the
// dispatcher is already stopped, the notification is dropped with a
// warning rather than blocking or panicking.
func (d *Dispatcher) Notify(n models.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		d.log.Warn("dispatcher stopped, dropping notification",
			zap.String("recipient", n.Recipient.Hex()),
			zap.String("type", n.Type))
		return
	}
	select {
	case d.queue <- n:
	default:
		d.log.Warn("notification queue full, dropping",
			zap.String("recipient", n.Recipient.Hex()),
			zap.String("type", n.Type))
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n models.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.store.Insert(ctx, &n); err != nil {
		d.log.Error("failed to persist notification",
			zap.String("recipient", n.Recipient.Hex()),
			zap.Error(err))
		return
	}

	if d.hub == nil {
		return
	}
	payload, err := json.Marshal(wsEnvelope{Event: "notification", Data: n})
	if err != nil {
		d.log.Error("failed to marshal notification", zap.Error(err))
		return
	}
	if err := d.hub.Send(n.Recipient.Hex(), payload); err != nil {
		d.log.Warn("failed to push notification",
			zap.String("recipient", n.Recipient.Hex()),
			zap.Error(err))
	}
}

type wsEnvelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}
