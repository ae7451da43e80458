// Package cache provides the Redis-backed dashboard cache. Caching is
// best-effort: Redis failures are logged and never surfaced to callers.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/learntocloud/ltc-backend/core"
	"github.com/learntocloud/ltc-backend/core/progress"
)

const dashboardTTL = 5 * time.Minute

type DashboardCache struct {
	client  *redis.Client
	logger  core.Logger
	timeout time.Duration
}

var _ progress.DashboardCache = (*DashboardCache)(nil)

// NewDashboardCache connects to Redis and pings it once to surface
// misconfiguration at startup.
func NewDashboardCache(conf core.Config, logger core.Logger) (*DashboardCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &DashboardCache{client: client, logger: logger, timeout: 2 * time.Second}, nil
}

func dashboardKey(userID string) string { return "dashboard:" + userID }

func (c *DashboardCache) GetDashboard(userID string) (progress.Dashboard, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	raw, err := c.client.Get(ctx, dashboardKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("dashboard cache: get failed: " + err.Error())
		}
		return progress.Dashboard{}, false
	}

	var d progress.Dashboard
	if err = json.Unmarshal(raw, &d); err != nil {
		c.logger.Warn("dashboard cache: decode failed: " + err.Error())
		return progress.Dashboard{}, false
	}
	return d, true
}

func (c *DashboardCache) SetDashboard(userID string, d progress.Dashboard) {
	raw, err := json.Marshal(d)
	if err != nil {
		c.logger.Warn("dashboard cache: encode failed: " + err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err = c.client.Set(ctx, dashboardKey(userID), raw, dashboardTTL).Err(); err != nil {
		c.logger.Warn("dashboard cache: set failed: " + err.Error())
	}
}

func (c *DashboardCache) Invalidate(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.client.Del(ctx, dashboardKey(userID)).Err(); err != nil {
		c.logger.Warn("dashboard cache: invalidate failed: " + err.Error())
	}
}

// Ping reports Redis reachability; the API health check uses it.
func (c *DashboardCache) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection.
func (c *DashboardCache) Close() error { return c.client.Close() }
