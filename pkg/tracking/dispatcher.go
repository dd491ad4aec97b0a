package tracking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pseng/MyH5P-pages/internal/logging"
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/ports"
	"github.com/pseng/MyH5P-pages/pkg/traversal"
)

// Delivery pairs a statement with the outcome of sending it.
type Delivery struct {
	Statement domain.Statement
	Result    domain.SendResult
}

// Dispatcher turns traversal events into statements and sends them in the background.
// Emit never blocks on the network; failures are logged and otherwise dropped.
type Dispatcher struct {
	builder *Builder
	sender  ports.StatementSender
	path    *domain.LearningPath
	actor   domain.Actor
	timeout time.Duration
	logger  *slog.Logger

	onDelivery func(Delivery)
	wg         sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDeliveryCallback observes every delivery outcome.
func WithDeliveryCallback(fn func(Delivery)) DispatcherOption {
	return func(d *Dispatcher) {
		d.onDelivery = fn
	}
}

// WithSendTimeout bounds each background delivery.
func WithSendTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.timeout = t
	}
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

var _ traversal.Emitter = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher for one learner on one path.
func NewDispatcher(b *Builder, sender ports.StatementSender, path *domain.LearningPath, actor domain.Actor, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		builder: b,
		sender:  sender,
		path:    path,
		actor:   actor,
		timeout: 15 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Emit builds the statement for ev and delivers it asynchronously.
func (d *Dispatcher) Emit(ctx context.Context, ev traversal.Event) {
	var node *domain.PathNode
	if ev.NodeID != "" {
		node = d.path.Node(ev.NodeID)
	}
	stmt := d.builder.Build(d.actor, ev.Verb, d.path, node, ev.Result, nil)

	// Detach from the caller: a finished request must not cancel delivery.
	sendCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		sendCtx, cancel := context.WithTimeout(sendCtx, d.timeout)
		defer cancel()

		res := d.sender.Send(sendCtx, stmt, d.path.LRSConfig)
		if !res.Stored && res.Reason != ReasonNotConfigured {
			d.logger.Debug("statement not stored", "verb", stmt.Verb.Name(), "reason", res.Reason)
		}
		if d.onDelivery != nil {
			d.onDelivery(Delivery{Statement: stmt, Result: res})
		}
	}()
}

// Flush waits for in-flight deliveries.
func (d *Dispatcher) Flush() {
	d.wg.Wait()
}
