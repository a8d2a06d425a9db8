package client

import (
	kafka "github.com/segmentio/kafka-go"
)

const (
	mockTopicName = "fake-topic"
)

func mockGetBrokers() []kafka.Broker {
	return []kafka.Broker{
		{ID: 0, Rack: "rack1"},
		{ID: 1, Rack: "rack2"},
		{ID: 2, Rack: "rack3"},
	}
}

func mockGetTopics() []kafka.Topic {
	return []kafka.Topic{
		{
			Name: mockTopicName,
			Partitions: []kafka.Partition{
				{Topic: mockTopicName, ID: 0},
				{Topic: mockTopicName, ID: 1},
				{Topic: mockTopicName, ID: 2},
			},
		},
	}
}
