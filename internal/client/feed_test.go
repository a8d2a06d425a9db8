package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedReader replays a fixed message sequence, then blocks until
// the fetch context expires, the way a caught-up reader does.
type scriptedReader struct {
	mu       sync.Mutex
	msgs     []kafka.Message
	lags     []int64
	fetchErr error
	i        int
	lag      int64
	closed   bool
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ctx.Err() != nil {
		return kafka.Message{}, ctx.Err()
	}
	if r.fetchErr != nil {
		return kafka.Message{}, r.fetchErr
	}
	if r.i < len(r.msgs) {
		msg := r.msgs[r.i]
		r.lag = r.lags[r.i]
		r.i++
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	r.mu.Lock()
	return kafka.Message{}, ctx.Err()
}

func (r *scriptedReader) Lag() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lag
}

func (r *scriptedReader) ReadLag(ctx context.Context) (int64, error) {
	return r.Lag(), nil
}

func (r *scriptedReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func newTestFeed() *Feed {
	logger := zerolog.Nop()
	return &Feed{
		config:     FeedConfig{MaxWait: 20 * time.Millisecond},
		logger:     &logger,
		partitions: make(map[int]*partitionFeed),
	}
}

func runFetch(t *testing.T, reader KafkaPartitionReader, wantDeliveries int) []Delivery {
	t.Helper()

	feed := newTestFeed()
	q := NewQueue(16)
	defer q.Destroy()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pf := &partitionFeed{cancel: cancel, reader: reader, done: make(chan struct{})}

	go feed.fetch(ctx, mockTopicName, 0, pf, q)

	var got []Delivery
	deadline := time.After(2 * time.Second)
	for len(got) < wantDeliveries {
		select {
		case <-deadline:
			t.Fatalf("timed out after %d deliveries", len(got))
		default:
		}
		q.Poll(50*time.Millisecond, func(d Delivery) {
			got = append(got, d)
		})
	}

	cancel()
	select {
	case <-pf.done:
	case <-time.After(time.Second):
		t.Fatal("fetcher did not exit after cancel")
	}
	return got
}

func TestFeedFetchDeliversInOrderThenEOF(t *testing.T) {
	reader := &scriptedReader{
		msgs: []kafka.Message{
			{Topic: mockTopicName, Partition: 0, Offset: 10, Value: []byte("a")},
			{Topic: mockTopicName, Partition: 0, Offset: 11, Value: []byte("b")},
			{Topic: mockTopicName, Partition: 0, Offset: 12, Value: []byte("c")},
		},
		lags: []int64{2, 1, 0},
	}

	got := runFetch(t, reader, 4)

	require.Len(t, got, 4)
	assert.Equal(t, int64(10), got[0].Offset)
	assert.Equal(t, int64(11), got[1].Offset)
	assert.Equal(t, int64(12), got[2].Offset)
	for _, d := range got[:3] {
		assert.NoError(t, d.Err)
	}
	// Catching up with the high watermark produces one EOF delivery.
	assert.ErrorIs(t, got[3].Err, ErrPartitionEOF)
	assert.Equal(t, int64(13), got[3].Offset)
}

func TestFeedFetchEOFOnEmptyPartition(t *testing.T) {
	reader := &scriptedReader{lag: 0}

	got := runFetch(t, reader, 1)

	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].Err, ErrPartitionEOF)
}

func TestFeedFetchDeliversFatalError(t *testing.T) {
	reader := &scriptedReader{fetchErr: errors.New("offset out of range")}

	got := runFetch(t, reader, 1)

	require.Len(t, got, 1)
	require.Error(t, got[0].Err)
	assert.Contains(t, got[0].Err.Error(), "offset out of range")
	assert.Equal(t, 0, got[0].Partition)
}

func TestFeedResolveOffset(t *testing.T) {
	listOffsets := &kafka.ListOffsetsResponse{
		Topics: map[string][]kafka.PartitionOffsets{
			mockTopicName: {{Partition: 0, FirstOffset: 5, LastOffset: 100}},
		},
	}

	tests := []struct {
		name      string
		offset    StartOffset
		groupID   string
		committed int64
		want      int64
		assertion assert.ErrorAssertionFunc
	}{
		{"Beginning", StartOffset{Kind: OffsetBeginning}, "", 0, kafka.FirstOffset, assert.NoError},
		{"End", StartOffset{Kind: OffsetEnd}, "", 0, kafka.LastOffset, assert.NoError},
		{"Absolute", StartOffset{Kind: OffsetAbsolute, Value: 42}, "", 0, 42, assert.NoError},
		{"Tail", StartOffset{Kind: OffsetTail, Value: 3}, "", 0, 97, assert.NoError},
		{"TailClampedToFirst", StartOffset{Kind: OffsetTail, Value: 1000}, "", 0, 5, assert.NoError},
		{"Stored", StartOffset{Kind: OffsetStored}, "g", 64, 64, assert.NoError},
		{"StoredNoCommit", StartOffset{Kind: OffsetStored}, "g", -1, kafka.FirstOffset, assert.NoError},
		{"StoredWithoutGroup", StartOffset{Kind: OffsetStored}, "", 0, 0, assert.Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := newTestFeed()
			feed.config.GroupID = tt.groupID
			feed.client = &mockMetadataClient{
				listOffsets: listOffsets,
				offsetFetch: &kafka.OffsetFetchResponse{
					Topics: map[string][]kafka.OffsetFetchPartition{
						mockTopicName: {{Partition: 0, CommittedOffset: tt.committed}},
					},
				},
			}

			got, err := feed.resolveOffset(context.Background(), mockTopicName, 0, tt.offset)
			tt.assertion(t, err)
			if err == nil {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
