// Package redis stores the latest snapshot of each dashboard in Redis, next
// to a GEO set of its region centers for radius lookups by other consumers.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/floodplan-service/internal/config"
	"github.com/couchcryptid/floodplan-service/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const (
	snapshotKeyFormat = "floodplan:snapshot:%s"
	regionsKeyFormat  = "floodplan:regions:%s"
)

// commander is the subset of the go-redis client the store needs.
type commander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	GeoAdd(ctx context.Context, key string, geoLocation ...*goredis.GeoLocation) *goredis.IntCmd
	Ping(ctx context.Context) *goredis.StatusCmd
}

// Store publishes snapshots to Redis. It implements pipeline.Loader.
type Store struct {
	client commander
	closer func() error
	logger *slog.Logger
}

// NewStore connects to the configured Redis instance.
func NewStore(cfg *config.Config, logger *slog.Logger) *Store {
	rdb := goredis.NewClient(&goredis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	return &Store{client: rdb, closer: rdb.Close, logger: logger}
}

// Sink names this loader in metrics and logs.
func (s *Store) Sink() string { return config.SinkRedis }

// Load overwrites the dashboard's latest snapshot and refreshes the GEO set
// of its region centers.
func (s *Store) Load(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("serialize snapshot: %w", err)
	}
	if err := s.client.Set(ctx, SnapshotKey(snap.Dashboard), data, 0).Err(); err != nil {
		return fmt.Errorf("set snapshot %s: %w", snap.Dashboard, err)
	}

	if len(snap.Regions) == 0 {
		return nil
	}
	locs := make([]*goredis.GeoLocation, len(snap.Regions))
	for i, r := range snap.Regions {
		locs[i] = &goredis.GeoLocation{
			Name:      r.ID,
			Latitude:  r.Center.Lat,
			Longitude: r.Center.Lon,
		}
	}
	if err := s.client.GeoAdd(ctx, RegionsKey(snap.Dashboard), locs...).Err(); err != nil {
		return fmt.Errorf("geoadd regions %s: %w", snap.Dashboard, err)
	}
	s.logger.Debug("snapshot stored", "dashboard", snap.Dashboard, "cycle", snap.Cycle)
	return nil
}

// CheckReadiness pings Redis.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// SnapshotKey is the key holding a dashboard's latest snapshot JSON.
func SnapshotKey(dashboard string) string { return fmt.Sprintf(snapshotKeyFormat, dashboard) }

// RegionsKey is the GEO set of a dashboard's region centers.
func RegionsKey(dashboard string) string { return fmt.Sprintf(regionsKeyFormat, dashboard) }
