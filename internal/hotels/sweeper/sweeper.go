// Package sweeper reconciles the gap the saga deliberately leaves open: when
// a booking is cancelled but its compensating release never reached the hotel
// service, a stale held lock keeps blocking the room. The sweeper releases
// holds that have outlived the staleness window.
package sweeper

import (
	"context"
	"time"

	"roombook/internal/hotels/repository"
	"roombook/internal/hotels/service"
	"roombook/pkg/config"
)

const staleBatchSize = 100

type Sweeper struct {
	lockRepo   repository.ReservationLockRepository
	service    service.HotelService
	interval   time.Duration
	staleAfter time.Duration
	cfg        *config.Config
	stopCh     chan struct{}
	doneCh     chan struct{}
}

func New(lockRepo repository.ReservationLockRepository, svc service.HotelService, cfg *config.Config) *Sweeper {
	return &Sweeper{
		lockRepo:   lockRepo,
		service:    svc,
		interval:   cfg.HoldSweepInterval,
		staleAfter: cfg.HoldStaleAfter,
		cfg:        cfg,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start launches the background sweep loop.
func (s *Sweeper) Start() {
	go s.run()
	s.cfg.Log.Info("Stale hold sweeper started",
		"interval", s.interval,
		"stale_after", s.staleAfter,
	)
}

func (s *Sweeper) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SweepOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// SweepOnce releases every held lock older than the staleness window.
// Individual failures are logged and do not abort the pass; a lock that
// cannot be released now will be retried on the next tick.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	cutoff := time.Now().Add(-s.staleAfter)
	stale, err := s.lockRepo.FindStaleHeld(ctx, cutoff, staleBatchSize)
	if err != nil {
		s.cfg.Log.Error("Stale hold scan failed", "error", err)
		return 0
	}

	released := 0
	for _, lock := range stale {
		if _, err := s.service.ReleaseHold(ctx, lock.RequestID); err != nil {
			s.cfg.Log.Warn("Failed to release stale hold",
				"request_id", lock.RequestID,
				"room_id", lock.RoomID,
				"error", err,
			)
			continue
		}
		released++
		s.cfg.Log.Info("Released stale hold",
			"request_id", lock.RequestID,
			"room_id", lock.RoomID,
			"held_since", lock.CreatedAt,
		)
	}

	if len(stale) > 0 {
		s.cfg.Log.Info("Stale hold sweep completed", "found", len(stale), "released", released)
	}
	return released
}

// Stop halts the loop and waits for the in-flight pass to finish.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
}
