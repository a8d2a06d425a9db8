package tap

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"kafkatap/internal/client"
)

const (
	// Upper bound on the startup metadata query.
	metadataTimeout = 5000 * time.Millisecond
	// Bounded wait per queue poll; short so that stop requests are
	// observed promptly instead of sitting inside a blocking read.
	pollInterval = 100 * time.Millisecond
)

// Status is a snapshot of a run, served by the status endpoint.
type Status struct {
	Topic      string `json:"topic"`
	Partitions []int  `json:"partitions"`
	Received   int64  `json:"received"`
	Running    bool   `json:"running"`
}

// Tap drives one consumption run: resolve partitions, start their
// feeds into a shared queue, drain the queue through the handler until
// a stop condition holds, then stop the feeds and release the queue.
type Tap struct {
	config Config
	admin  client.Admin
	feed   client.ConsumerFeed
	out    io.Writer
	state  *RunState
	logger *zerolog.Logger

	mu         sync.Mutex
	partitions []int
}

func New(config Config, admin client.Admin, feed client.ConsumerFeed, out io.Writer, logger *zerolog.Logger) *Tap {
	return &Tap{
		config: config,
		admin:  admin,
		feed:   feed,
		out:    out,
		state:  NewRunState(),
		logger: logger,
	}
}

// Stop requests a graceful stop. Safe to call from another goroutine;
// a second request while already draining is a no-op.
func (t *Tap) Stop() { t.state.Stop() }

// Status reports the current run snapshot.
func (t *Tap) Status() Status {
	t.mu.Lock()
	partitions := t.partitions
	t.mu.Unlock()
	return Status{
		Topic:      t.config.Topic,
		Partitions: partitions,
		Received:   t.state.Received(),
		Running:    t.state.Running(),
	}
}

// Run performs the whole consumption. The returned error, if any, is a
// *client.FatalError; normal stop conditions (count limit, EOF
// threshold, Stop call) return nil.
func (t *Tap) Run(ctx context.Context) error {
	mctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	meta, err := t.admin.GetTopic(mctx, t.config.Topic)
	cancel()
	if err != nil {
		return client.Fatalf(t.config.Topic, -1, "failed to query metadata: %v", err)
	}

	partitions, err := SelectPartitions(meta, t.config.Partition)
	if err != nil {
		return client.Fatalf(t.config.Topic, -1, "%v", err)
	}
	t.mu.Lock()
	t.partitions = partitions
	t.mu.Unlock()

	tracker := NewEOFTracker(partitions, t.config.Partition != PartitionAll, t.state)
	handler := NewHandler(&t.config, t.state, tracker, t.out, t.logger)

	queue := t.feed.NewQueue()
	defer queue.Destroy()

	for _, partition := range partitions {
		if err := t.feed.StartPartition(ctx, t.config.Topic, partition, t.config.Offset, queue); err != nil {
			return client.Fatalf(t.config.Topic, partition, "failed to start consuming: %v", err)
		}
	}

	t.logger.Info().
		Str("topic", t.config.Topic).
		Ints("partitions", partitions).
		Str("offset", t.config.Offset.String()).
		Msg("Consuming")

	for t.state.Running() {
		if ctx.Err() != nil {
			t.state.Stop()
			break
		}
		queue.Poll(pollInterval, handler.Handle)
	}

	// A fatal condition abandons the run as-is: no partition stop, no
	// further draining. The deferred Destroy still runs exactly once.
	if err := handler.Err(); err != nil {
		return err
	}

	for _, partition := range partitions {
		if err := t.feed.StopPartition(t.config.Topic, partition); err != nil {
			t.logger.Warn().
				Err(err).
				Str("topic", t.config.Topic).
				Int("partition", partition).
				Msg("Error stopping partition")
		}
	}

	t.logger.Info().
		Int64("received", t.state.Received()).
		Msg("Done consuming")

	return nil
}
