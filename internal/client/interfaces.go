package client

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// KafkaMetadataClient is the slice of kafka.Client this tool needs for
// metadata and offset lookups.
type KafkaMetadataClient interface {
	Metadata(ctx context.Context, req *kafka.MetadataRequest) (*kafka.MetadataResponse, error)
	ListOffsets(ctx context.Context, req *kafka.ListOffsetsRequest) (*kafka.ListOffsetsResponse, error)
	OffsetFetch(ctx context.Context, req *kafka.OffsetFetchRequest) (*kafka.OffsetFetchResponse, error)
}

var _ KafkaMetadataClient = &kafka.Client{}

// KafkaPartitionReader is a kafka.Reader compatible interface, restricted
// to the single-partition fetch surface used by the feed.
type KafkaPartitionReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	Lag() int64
	ReadLag(ctx context.Context) (int64, error)
	Close() error
}

var _ KafkaPartitionReader = &kafka.Reader{}
