package signals

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Stopper is anything that can be asked to stop consuming.
type Stopper interface {
	Stop()
}

type Shutdown struct {
	logger                *zerolog.Logger
	serverShutdownTimeout time.Duration
}

func NewShutdown(serverShutdownTimeout time.Duration, logger *zerolog.Logger) (*Shutdown, error) {
	srv := &Shutdown{
		logger:                logger,
		serverShutdownTimeout: serverShutdownTimeout,
	}

	return srv, nil
}

// Graceful waits for the stop channel, then requests a cooperative
// stop of the tap and shuts the status server down, if one is running.
func (s *Shutdown) Graceful(stopCh <-chan struct{}, httpServer *http.Server, worker Stopper, healthy *int32, ready *int32) {
	ctx := context.Background()

	// wait for SIGTERM or SIGINT
	<-stopCh
	ctx, cancel := context.WithTimeout(ctx, s.serverShutdownTimeout)
	defer cancel()

	s.logger.Info().
		Msg("Stop requested, draining")
	worker.Stop()

	if healthy != nil {
		atomic.StoreInt32(healthy, 0)
	}
	if ready != nil {
		atomic.StoreInt32(ready, 0)
	}

	if httpServer != nil {
		s.logger.Info().
			Dur("timeout", s.serverShutdownTimeout).
			Msg("Shutting down HTTP server")
		if err := httpServer.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server graceful shutdown failed")
		}
	}
}
