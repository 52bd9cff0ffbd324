package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweetshop/inventory-api/internal/api/metrics"
	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	publishTimeout = 5 * time.Second
)

// Dispatcher routes stock events to a fixed set of workers using consistent
// hashing on the item ID, guaranteeing per-item publish ordering.
type Dispatcher struct {
	workers   []chan domain.StockEvent
	publisher ports.StockEventPublisher
	log       zerolog.Logger
	wg        sync.WaitGroup

	// mu guards closed against the channel close in Close.
	mu     sync.RWMutex
	closed bool
}

var _ ports.StockEventSink = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, publisher ports.StockEventPublisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan domain.StockEvent, numWorkers),
		publisher: publisher,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.StockEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers exit when ctx is cancelled or
// after Close once their channel is drained.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an event to the worker responsible for its item. It never
// blocks: when the worker channel is full, or the dispatcher is closed, the
// event is dropped and counted.
func (d *Dispatcher) Enqueue(event domain.StockEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	idx := d.shardIndex(event.ItemID)
	if d.closed {
		metrics.StockEventsTotal.WithLabelValues(string(event.Kind), "dropped").Inc()
		d.log.Warn().
			Str("item_id", event.ItemID).
			Str("kind", string(event.Kind)).
			Msg("dispatcher closed, event dropped")
		return
	}
	select {
	case d.workers[idx] <- event:
		metrics.StockEventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.StockEventsTotal.WithLabelValues(string(event.Kind), "dropped").Inc()
		d.log.Warn().
			Str("item_id", event.ItemID).
			Str("kind", string(event.Kind)).
			Int("worker_id", idx).
			Msg("stock event queue full, event dropped")
	}
}

// Close stops accepting events and waits for the workers to drain. Events
// enqueued after Close are dropped.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// shardIndex maps an item ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(itemID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(itemID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.StockEvent) {
	defer d.wg.Done()
	depth := metrics.StockEventsQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			d.publish(ctx, id, event)
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, workerID int, event domain.StockEvent) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	start := time.Now()
	err := d.publisher.Publish(ctx, event)
	metrics.StockEventPublishDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.StockEventsTotal.WithLabelValues(string(event.Kind), "failed").Inc()
		d.log.Error().Err(err).
			Str("item_id", event.ItemID).
			Str("kind", string(event.Kind)).
			Int("worker_id", workerID).
			Msg("stock event publish failed")
		return
	}

	metrics.StockEventsTotal.WithLabelValues(string(event.Kind), "published").Inc()
	if event.LowStock {
		metrics.LowStockItemsTotal.Inc()
		d.log.Warn().
			Str("item_id", event.ItemID).
			Str("name", event.ItemName).
			Int("quantity", event.Quantity).
			Msg("item low on stock")
	}
}

// LogPublisher writes events to the log. It is used when no broker is configured.
type LogPublisher struct {
	Log zerolog.Logger
}

func (p LogPublisher) Publish(_ context.Context, event domain.StockEvent) error {
	p.Log.Info().
		Str("item_id", event.ItemID).
		Str("kind", string(event.Kind)).
		Int("delta", event.Delta).
		Int("quantity", event.Quantity).
		Bool("low_stock", event.LowStock).
		Msg("stock event")
	return nil
}
