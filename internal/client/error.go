package client

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

// ErrPartitionEOF marks a delivery that carries no record: the feeder
// caught up with the partition's high watermark. It is a notification,
// not a failure; the partition stays subscribed and later records are
// still delivered.
var ErrPartitionEOF = errors.New("partition EOF")

// FatalError wraps an unrecoverable condition with the topic/partition
// it was detected on. It unwinds to main, which logs one diagnostic
// line and exits non-zero.
type FatalError struct {
	Topic     string
	Partition int
	Err       error
}

func (e *FatalError) Error() string {
	if e.Partition < 0 {
		return fmt.Sprintf("topic %s: %v", e.Topic, e.Err)
	}
	return fmt.Sprintf("topic %s [%d]: %v", e.Topic, e.Partition, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Fatalf builds a FatalError for the given topic and partition.
// Partition -1 means the condition is not tied to one partition.
func Fatalf(topic string, partition int, format string, args ...interface{}) *FatalError {
	return &FatalError{Topic: topic, Partition: partition, Err: fmt.Errorf(format, args...)}
}

// IsPartitionEOF reports whether the delivery error is an
// end-of-partition notification.
func IsPartitionEOF(err error) bool {
	return errors.Is(err, ErrPartitionEOF)
}

func IsTransientNetworkError(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

// IsDisconnection returns true if the err provided represents a TCP disconnection
func IsDisconnection(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ETIMEDOUT) || errors.Is(err, os.ErrDeadlineExceeded)
}
