package tap

import (
	"errors"
	"fmt"

	"kafkatap/internal/client"
)

// ErrNoPartitions is returned when the topic exists but reports an
// empty partition set.
var ErrNoPartitions = errors.New("topic has no partitions")

// PartitionNotFoundError reports an explicitly requested partition that
// is not part of the topic.
type PartitionNotFoundError struct {
	Topic          string
	Partition      int
	PartitionCount int
}

func (e *PartitionNotFoundError) Error() string {
	return fmt.Sprintf("topic %s (with partitions 0..%d): partition %d does not exist",
		e.Topic, e.PartitionCount-1, e.Partition)
}

// SelectPartitions returns the ordered set of partition ids to consume.
// With partition == PartitionAll every partition is selected, in
// metadata order; otherwise the set is just the requested id, which
// must appear in the metadata.
func SelectPartitions(meta client.TopicInfo, partition int) ([]int, error) {
	if len(meta.Partitions) == 0 {
		return nil, fmt.Errorf("topic %s: %w", meta.Name, ErrNoPartitions)
	}

	if partition == PartitionAll {
		ids := make([]int, 0, len(meta.Partitions))
		for _, p := range meta.Partitions {
			ids = append(ids, p.ID)
		}
		return ids, nil
	}

	for _, p := range meta.Partitions {
		if p.ID == partition {
			return []int{partition}, nil
		}
	}
	return nil, &PartitionNotFoundError{
		Topic:          meta.Name,
		Partition:      partition,
		PartitionCount: len(meta.Partitions),
	}
}
