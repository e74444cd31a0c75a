package services

import (
	"context"
	"fmt"

	"billtrack/internal/core"
	"billtrack/internal/log"
	ports "billtrack/internal/sheets"
)

// SnapshotCache is the stale-but-available fallback behind the remote
// payment store, refreshed after every successful remote read.
type SnapshotCache interface {
	ports.PaymentLister
	ReplaceSyncedPayments(ctx context.Context, userID string, payments []core.Payment) error
}

// SnapshotService resolves the in-memory snapshot the engines run on:
// payments from the remote store when reachable, from the cache otherwise,
// registry from local storage either way.
type SnapshotService struct {
	remote   ports.PaymentLister
	cache    SnapshotCache
	registry RegistryStore
	logger   *log.Logger
}

func NewSnapshotService(remote ports.PaymentLister, cache SnapshotCache, registry RegistryStore, logger *log.Logger) *SnapshotService {
	return &SnapshotService{
		remote:   remote,
		cache:    cache,
		registry: registry,
		logger:   logger.WithComponent("snapshot"),
	}
}

func (s *SnapshotService) Load(ctx context.Context, userID string) (core.Snapshot, error) {
	reg, err := s.registry.LoadExpenses(ctx, userID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("load registry: %w", err)
	}

	payments, err := s.remote.ListPayments(ctx, userID)
	if err != nil {
		if s.cache == nil {
			return core.Snapshot{}, fmt.Errorf("load payments: %w", err)
		}
		s.logger.WarnContext(ctx, "remote store unavailable, serving cached payments",
			"user_id", userID, "error", err)
		cached, cacheErr := s.cache.ListPayments(ctx, userID)
		if cacheErr != nil {
			return core.Snapshot{}, fmt.Errorf("load payments (cache fallback also failed: %v): %w", cacheErr, err)
		}
		return core.Snapshot{Expenses: reg, Payments: cached}, nil
	}

	if s.cache != nil {
		if err := s.cache.ReplaceSyncedPayments(ctx, userID, payments); err != nil {
			s.logger.WarnContext(ctx, "cache refresh failed", "user_id", userID, "error", err)
		}
		// Merge in local writes still waiting for sync so a fresh remote
		// read never hides them.
		cached, err := s.cache.ListPayments(ctx, userID)
		if err == nil {
			payments = cached
		}
	}

	return core.Snapshot{Expenses: reg, Payments: payments}, nil
}
