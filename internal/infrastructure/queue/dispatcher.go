package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/crmhub/crm-backend/internal/core/domain"
	"github.com/crmhub/crm-backend/internal/core/ports"
	"github.com/crmhub/crm-backend/internal/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes status-change events to a fixed set of workers using
// consistent hashing on the opportunity ID, guaranteeing per-opportunity
// ordering. It implements ports.StatusEventPublisher.
type Dispatcher struct {
	workers []chan domain.StatusChangeEvent
	handler ports.StatusEventHandler
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, handler ports.StatusEventHandler, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.StatusChangeEvent, numWorkers),
		handler: handler,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.StatusChangeEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled,
// after draining what is already queued.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Publish sends an event to the worker responsible for its opportunity.
// When that worker's buffer is full the event is dropped and logged, so a slow
// audit store never blocks a request.
func (d *Dispatcher) Publish(event domain.StatusChangeEvent) {
	idx := d.shardIndex(event.OpportunityID)
	select {
	case d.workers[idx] <- event:
		metrics.StatusEventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.StatusEventsRecordedTotal.WithLabelValues("dropped").Inc()
		d.log.Error().
			Str("event_id", event.ID).
			Int64("opportunity_id", event.OpportunityID).
			Int("worker_id", idx).
			Msg("status event queue full, event dropped")
	}
}

// shardIndex maps an opportunity ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(opportunityID int64) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(opportunityID, 10)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.StatusChangeEvent) {
	defer d.wg.Done()
	depth := metrics.StatusEventsQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch, depth)
			return
		case event := <-ch:
			depth.Dec()
			d.handle(ctx, id, event)
		}
	}
}

// drain records events still buffered at shutdown with a fresh context.
func (d *Dispatcher) drain(id int, ch <-chan domain.StatusChangeEvent, depth prometheus.Gauge) {
	for {
		select {
		case event := <-ch:
			depth.Dec()
			d.handle(context.Background(), id, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, id int, event domain.StatusChangeEvent) {
	if err := d.handler.Handle(ctx, event); err != nil {
		d.log.Error().Err(err).
			Str("event_id", event.ID).
			Int64("opportunity_id", event.OpportunityID).
			Int("worker_id", id).
			Msg("status event recording failed")
	}
}
