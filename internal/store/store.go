package store

import (
	"context"

	"superstore-map/internal/store/sqlite"
)

// Load hydrates the store from the sqlite cache when it has data, falling
// back to CSV parsing and repopulating the cache afterwards. Cache failures
// are logged and degrade to a plain CSV load; the cache is an optimization,
// never a requirement.
func (s *OrderStore) Load(ctx context.Context, csvPath string, cache *sqlite.Cache) error {
	if cache != nil {
		if count, err := cache.Count(ctx); err == nil && count > 0 {
			orders, err := cache.LoadOrders(ctx)
			if err == nil {
				s.SetOrders(orders)
				s.logger.Info("orders loaded from cache", "records", len(orders))
				return nil
			}
			s.logger.Warn("order cache read failed, falling back to csv", "error", err)
		}
	}

	if err := s.LoadCSV(ctx, csvPath); err != nil {
		return err
	}

	if cache != nil {
		if err := cache.SaveOrders(ctx, s.Orders()); err != nil {
			s.logger.Warn("failed to populate order cache", "error", err)
		}
	}
	return nil
}
