package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Queue is a shared delivery channel combining records from every
// started partition, drained by a single consumer.
type Queue struct {
	ch      chan Delivery
	done    chan struct{}
	destroy sync.Once
}

// NewQueue returns a queue with the given buffer depth.
func NewQueue(depth int) *Queue {
	if depth <= 0 {
		depth = 256
	}
	return &Queue{
		ch:   make(chan Delivery, depth),
		done: make(chan struct{}),
	}
}

// Poll waits up to timeout for a delivery, dispatches it through fn,
// then drains whatever else is immediately available without blocking.
// It returns the number of deliveries dispatched.
func (q *Queue) Poll(timeout time.Duration, fn func(Delivery)) int {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	n := 0
	select {
	case d := <-q.ch:
		fn(d)
		n++
	case <-timer.C:
		return 0
	case <-q.done:
		return 0
	}
	for {
		select {
		case d := <-q.ch:
			fn(d)
			n++
		default:
			return n
		}
	}
}

// Destroy releases the queue. Feeders blocked on a full queue unblock;
// later sends are dropped. Safe to call more than once, only the first
// call does anything.
func (q *Queue) Destroy() {
	q.destroy.Do(func() { close(q.done) })
}

// Send enqueues one delivery, blocking until there is room. It returns
// false when the queue was destroyed or ctx ended before the delivery
// was accepted.
func (q *Queue) Send(ctx context.Context, d Delivery) bool {
	select {
	case q.ch <- d:
		return true
	case <-q.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// FeedConfig tunes partition fetching. Zero values pick the defaults.
type FeedConfig struct {
	GroupID    string `mapstructure:"group-id"`
	MinBytes   int    `mapstructure:"min-bytes"`
	MaxBytes   int    `mapstructure:"max-bytes"`
	MaxWait    time.Duration
	QueueDepth int `mapstructure:"queue-depth"`
}

const (
	defaultMaxWait  = 500 * time.Millisecond
	defaultMaxBytes = 1 << 20
)

// ConsumerFeed is the contract the consumption loop holds against the
// messaging client: start/stop per-partition delivery into a shared
// queue.
type ConsumerFeed interface {
	NewQueue() *Queue
	StartPartition(ctx context.Context, topic string, partition int, offset StartOffset, q *Queue) error
	StopPartition(topic string, partition int) error
}

var _ ConsumerFeed = (*Feed)(nil)

// Feed runs one fetcher goroutine per started partition. Each fetcher
// preserves its partition's offset order; records from different
// partitions interleave on the shared queue.
type Feed struct {
	connector *Connector
	client    KafkaMetadataClient
	config    FeedConfig
	logger    *zerolog.Logger

	mu         sync.Mutex
	partitions map[int]*partitionFeed
}

type partitionFeed struct {
	cancel context.CancelFunc
	reader KafkaPartitionReader
	done   chan struct{}
}

func NewFeed(connector *Connector, config FeedConfig, logger *zerolog.Logger) *Feed {
	if config.MaxWait <= 0 {
		config.MaxWait = defaultMaxWait
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = defaultMaxBytes
	}
	if config.MinBytes <= 0 {
		config.MinBytes = 1
	}
	return &Feed{
		connector:  connector,
		client:     connector.KafkaClient,
		config:     config,
		logger:     logger,
		partitions: make(map[int]*partitionFeed),
	}
}

func (f *Feed) NewQueue() *Queue {
	return NewQueue(f.config.QueueDepth)
}

// StartPartition resolves the start directive to a concrete offset,
// opens a reader on the partition and begins delivering into q. The
// resolution round-trips to the cluster for tail and stored offsets,
// so a dead broker fails here rather than inside the fetcher.
func (f *Feed) StartPartition(ctx context.Context, topic string, partition int, offset StartOffset, q *Queue) error {
	concrete, err := f.resolveOffset(ctx, topic, partition, offset)
	if err != nil {
		return fmt.Errorf("resolving offset %s: %w", offset, err)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   f.connector.Config.BrokerAddrs,
		Dialer:    f.connector.Dialer,
		Topic:     topic,
		Partition: partition,
		MinBytes:  f.config.MinBytes,
		MaxBytes:  f.config.MaxBytes,
		MaxWait:   f.config.MaxWait,
	})
	if err := reader.SetOffset(concrete); err != nil {
		reader.Close()
		return fmt.Errorf("setting offset %d: %w", concrete, err)
	}

	fctx, cancel := context.WithCancel(ctx)
	pf := &partitionFeed{
		cancel: cancel,
		reader: reader,
		done:   make(chan struct{}),
	}

	f.mu.Lock()
	if _, dup := f.partitions[partition]; dup {
		f.mu.Unlock()
		cancel()
		reader.Close()
		return fmt.Errorf("partition %d already started", partition)
	}
	f.partitions[partition] = pf
	f.mu.Unlock()

	f.logger.Debug().
		Str("topic", topic).
		Int("partition", partition).
		Int64("offset", concrete).
		Msg("Starting partition fetcher")

	go f.fetch(fctx, topic, partition, pf, q)
	return nil
}

// StopPartition cancels the partition's fetcher and closes its reader.
// Best-effort: used during shutdown, the caller only logs failures.
func (f *Feed) StopPartition(topic string, partition int) error {
	f.mu.Lock()
	pf, ok := f.partitions[partition]
	delete(f.partitions, partition)
	f.mu.Unlock()

	if !ok {
		return fmt.Errorf("partition %d not started", partition)
	}

	pf.cancel()
	err := pf.reader.Close()
	<-pf.done
	return err
}

// fetch is the per-partition delivery loop. It emits one EOF delivery
// each time the fetcher transitions from "records flowing" to "caught
// up with the high watermark"; the tracker on the other side is
// idempotent so a repeat after new records is harmless.
func (f *Feed) fetch(ctx context.Context, topic string, partition int, pf *partitionFeed, q *Queue) {
	defer close(pf.done)

	atEOF := false
	for {
		fctx, cancel := context.WithTimeout(ctx, f.config.MaxWait)
		msg, err := pf.reader.FetchMessage(fctx)
		cancel()

		switch {
		case err == nil:
			atEOF = false
			if !q.Send(ctx, Delivery{
				Topic:     topic,
				Partition: partition,
				Offset:    msg.Offset,
				Key:       msg.Key,
				Value:     msg.Value,
			}) {
				return
			}
			if pf.reader.Lag() == 0 {
				atEOF = true
				if !q.Send(ctx, Delivery{Topic: topic, Partition: partition, Offset: msg.Offset + 1, Err: ErrPartitionEOF}) {
					return
				}
			}

		case errors.Is(err, context.DeadlineExceeded):
			if atEOF {
				continue
			}
			lctx, lcancel := context.WithTimeout(ctx, f.config.MaxWait)
			lag, lerr := pf.reader.ReadLag(lctx)
			lcancel()
			if lerr != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if lag <= 0 {
				atEOF = true
				if !q.Send(ctx, Delivery{Topic: topic, Partition: partition, Err: ErrPartitionEOF}) {
					return
				}
			}

		case ctx.Err() != nil:
			return

		case IsTransientNetworkError(err) || IsDisconnection(err):
			f.logger.Warn().
				Err(err).
				Str("topic", topic).
				Int("partition", partition).
				Msg("Transient fetch error, retrying")

		default:
			q.Send(ctx, Delivery{Topic: topic, Partition: partition, Err: err})
			return
		}
	}
}

func (f *Feed) resolveOffset(ctx context.Context, topic string, partition int, offset StartOffset) (int64, error) {
	switch offset.Kind {
	case OffsetBeginning:
		return kafka.FirstOffset, nil
	case OffsetEnd:
		return kafka.LastOffset, nil
	case OffsetAbsolute:
		return offset.Value, nil
	case OffsetTail:
		first, last, err := f.partitionBounds(ctx, topic, partition)
		if err != nil {
			return 0, err
		}
		start := last - offset.Value
		if start < first {
			start = first
		}
		return start, nil
	case OffsetStored:
		committed, err := f.committedOffset(ctx, topic, partition)
		if err != nil {
			return 0, err
		}
		if committed < 0 {
			// No commit for this group yet; start from the beginning.
			return kafka.FirstOffset, nil
		}
		return committed, nil
	default:
		return 0, fmt.Errorf("unknown offset kind %d", offset.Kind)
	}
}

func (f *Feed) partitionBounds(ctx context.Context, topic string, partition int) (first, last int64, err error) {
	resp, err := f.client.ListOffsets(ctx, &kafka.ListOffsetsRequest{
		Topics: map[string][]kafka.OffsetRequest{
			topic: {
				kafka.FirstOffsetOf(partition),
				kafka.LastOffsetOf(partition),
			},
		},
	})
	if err != nil {
		return 0, 0, err
	}
	for _, po := range resp.Topics[topic] {
		if po.Partition != partition {
			continue
		}
		if po.Error != nil {
			return 0, 0, po.Error
		}
		return po.FirstOffset, po.LastOffset, nil
	}
	return 0, 0, fmt.Errorf("no offsets returned for partition %d", partition)
}

func (f *Feed) committedOffset(ctx context.Context, topic string, partition int) (int64, error) {
	group := f.config.GroupID
	if group == "" {
		return 0, errors.New("stored offset requires a group.id property")
	}
	resp, err := f.client.OffsetFetch(ctx, &kafka.OffsetFetchRequest{
		GroupID: group,
		Topics:  map[string][]int{topic: {partition}},
	})
	if err != nil {
		return 0, err
	}
	if resp.Error != nil {
		return 0, resp.Error
	}
	for _, p := range resp.Topics[topic] {
		if p.Partition != partition {
			continue
		}
		if p.Error != nil {
			return 0, p.Error
		}
		return p.CommittedOffset, nil
	}
	return 0, fmt.Errorf("no committed offset returned for partition %d", partition)
}
