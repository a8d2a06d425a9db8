package tap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"kafkatap/internal/client"
)

func metaWithPartitions(ids ...int) client.TopicInfo {
	meta := client.TopicInfo{Name: "fake-topic"}
	for _, id := range ids {
		meta.Partitions = append(meta.Partitions, client.PartitionInfo{ID: id})
	}
	return meta
}

func TestSelectPartitions(t *testing.T) {
	tests := []struct {
		name      string
		meta      client.TopicInfo
		partition int
		want      []int
		assertion assert.ErrorAssertionFunc
	}{
		{
			name:      "AllPartitions",
			meta:      metaWithPartitions(0, 1, 2),
			partition: PartitionAll,
			want:      []int{0, 1, 2},
			assertion: assert.NoError,
		},
		{
			name:      "ExplicitPartition",
			meta:      metaWithPartitions(0, 1, 2),
			partition: 1,
			want:      []int{1},
			assertion: assert.NoError,
		},
		{
			name:      "MetadataOrderPreserved",
			meta:      metaWithPartitions(2, 0, 1),
			partition: PartitionAll,
			want:      []int{2, 0, 1},
			assertion: assert.NoError,
		},
		{
			name:      "ExplicitPartitionMissing",
			meta:      metaWithPartitions(0, 1, 2),
			partition: 5,
			assertion: assert.Error,
		},
		{
			name:      "NoPartitions",
			meta:      client.TopicInfo{Name: "fake-topic"},
			partition: PartitionAll,
			assertion: assert.Error,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectPartitions(tt.meta, tt.partition)
			tt.assertion(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectPartitionsErrorKinds(t *testing.T) {
	_, err := SelectPartitions(metaWithPartitions(0, 1, 2), 7)
	var notFound *PartitionNotFoundError
	assert.True(t, errors.As(err, &notFound))
	assert.Equal(t, 7, notFound.Partition)
	assert.Contains(t, err.Error(), "partitions 0..2")

	_, err = SelectPartitions(client.TopicInfo{Name: "fake-topic"}, PartitionAll)
	assert.ErrorIs(t, err, ErrNoPartitions)
}
