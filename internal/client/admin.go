package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// ErrTopicNotFound is returned when the cluster reports no metadata for
// the requested topic, or a topic-level error.
var ErrTopicNotFound = errors.New("topic not found")

// Admin exposes the read-only metadata surface of the cluster.
type Admin interface {
	GetTopic(ctx context.Context, name string) (TopicInfo, error)
	GetBrokers(ctx context.Context) ([]BrokerInfo, error)
}

var _ Admin = (*BrokerAdmin)(nil)

// BrokerAdmin queries cluster metadata through the Brokers API.
type BrokerAdmin struct {
	client KafkaMetadataClient
}

func NewBrokerAdmin(config ConnectorConfig) (*BrokerAdmin, error) {
	connector, err := NewConnector(config)
	if err != nil {
		return nil, err
	}

	return &BrokerAdmin{
		client: connector.KafkaClient,
	}, nil
}

// GetTopic returns information about a topic
func (c *BrokerAdmin) GetTopic(ctx context.Context, name string) (TopicInfo, error) {
	topicInfo := TopicInfo{}

	resp, err := c.client.Metadata(ctx, &kafka.MetadataRequest{
		Topics: []string{name},
	})
	if err != nil {
		return topicInfo, err
	}

	if len(resp.Topics) == 0 {
		return topicInfo, fmt.Errorf("no such topic in cluster: %s: %w", name, ErrTopicNotFound)
	}

	topic := resp.Topics[0]
	if topic.Error != nil {
		return topicInfo, fmt.Errorf("topic %s error: %v: %w", name, topic.Error, ErrTopicNotFound)
	}

	topicInfo.Name = topic.Name
	for _, p := range topic.Partitions {
		topicInfo.Partitions = append(topicInfo.Partitions, PartitionInfo{
			ID:     p.ID,
			Leader: p.Leader.ID,
			Err:    p.Error,
		})
	}

	return topicInfo, nil
}

// GetBrokers gets metadata about all brokers
func (c *BrokerAdmin) GetBrokers(ctx context.Context) ([]BrokerInfo, error) {
	var brokerInfo []BrokerInfo

	resp, err := c.client.Metadata(ctx, &kafka.MetadataRequest{})
	if err != nil {
		return brokerInfo, err
	}

	for _, b := range resp.Brokers {
		brokerInfo = append(brokerInfo, BrokerInfo{
			ID:   b.ID,
			Rack: b.Rack,
		})
	}

	return brokerInfo, nil
}
