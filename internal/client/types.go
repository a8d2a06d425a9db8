package client

// Delivery is a single record handed to the consumer loop, or a
// per-record delivery error. When Err is nil the record was fetched
// successfully and the message fields are meaningful.
type Delivery struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Err       error
}

// TopicInfo represents the metadata stored about a topic.
type TopicInfo struct {
	Name       string          `json:"name"`
	Partitions []PartitionInfo `json:"partitions"`
}

// PartitionInfo contains per-partition metadata as reported by the cluster.
type PartitionInfo struct {
	ID     int   `json:"id"`
	Leader int   `json:"leader"`
	Err    error `json:"-"`
}

// BrokerInfo represents the information stored about a broker.
type BrokerInfo struct {
	ID   int    `json:"id"`
	Rack string `json:"rack"`
}
