package tap

import (
	"io"
	"strconv"

	"github.com/rs/zerolog"

	"kafkatap/internal/client"
)

// Handler turns each delivery into output bytes or a control decision.
// It runs only on the polling goroutine, so it keeps no locks.
type Handler struct {
	config  *Config
	state   *RunState
	tracker *EOFTracker
	out     io.Writer
	logger  *zerolog.Logger

	buf   []byte
	fatal *client.FatalError
}

func NewHandler(config *Config, state *RunState, tracker *EOFTracker, out io.Writer, logger *zerolog.Logger) *Handler {
	return &Handler{
		config:  config,
		state:   state,
		tracker: tracker,
		out:     out,
		logger:  logger,
	}
}

// Err returns the first fatal condition the handler hit, if any.
func (h *Handler) Err() error {
	if h.fatal == nil {
		return nil
	}
	return h.fatal
}

// Handle processes one delivery. Deliveries drained after the run flag
// cleared are dropped: no output, no counter change, no offset use.
func (h *Handler) Handle(d client.Delivery) {
	if !h.state.Running() {
		return
	}

	if d.Err != nil {
		h.handleError(d)
		return
	}

	buf := h.buf[:0]
	if h.config.PrintOffset {
		buf = strconv.AppendInt(buf, d.Offset, 10)
		buf = append(buf, h.config.KeyDelimiter)
	}
	if h.config.PrintKey {
		buf = append(buf, d.Key...)
		buf = append(buf, h.config.KeyDelimiter)
	}
	buf = append(buf, d.Value...)
	buf = append(buf, h.config.Delimiter)
	h.buf = buf

	if _, err := h.out.Write(buf); err != nil {
		h.fail(client.Fatalf(d.Topic, d.Partition,
			"write error for message of %d bytes at offset %d: %v", len(d.Value), d.Offset, err))
		return
	}

	recordsConsumed.WithLabelValues(strconv.Itoa(d.Partition)).Inc()
	bytesWritten.WithLabelValues().Add(float64(len(d.Value)))

	received := h.state.addReceived()
	if h.config.Count > 0 && received == h.config.Count {
		h.logger.Debug().
			Int64("count", received).
			Msg("Message count limit reached")
		h.state.Stop()
	}
}

func (h *Handler) handleError(d client.Delivery) {
	if client.IsPartitionEOF(d.Err) {
		if h.config.ExitOnEOF {
			stopped := h.tracker.Notify(d.Partition)
			partitionsAtEOF.Set(float64(h.tracker.AtEOF()))

			event := h.logger.Debug().
				Str("topic", d.Topic).
				Int("partition", d.Partition).
				Int64("offset", d.Offset)
			if stopped {
				event.Msg("Reached end of topic: exiting")
			} else {
				event.Msg("Reached end of topic")
			}
			return
		}
		h.logger.Debug().
			Str("topic", d.Topic).
			Int("partition", d.Partition).
			Msg("Reached end of topic")
		return
	}

	deliveryErrors.WithLabelValues().Inc()
	h.fail(client.Fatalf(d.Topic, d.Partition, "delivery error: %v", d.Err))
}

// fail records the first fatal condition and clears the run flag so
// that anything already sitting in the queue is dropped.
func (h *Handler) fail(err *client.FatalError) {
	if h.fatal == nil {
		h.fatal = err
	}
	h.state.Stop()
}
