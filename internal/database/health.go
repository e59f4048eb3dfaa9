package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

const (
	StatusUp       = "up"
	StatusDown     = "down"
	StatusDisabled = "disabled"
)

// Check pings the optional stores. A nil store reports "disabled".
func Check(ctx context.Context, db *sqlx.DB, rdb *redis.Client) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	out := map[string]string{"database": StatusDisabled, "redis": StatusDisabled}
	if db != nil {
		out["database"] = StatusUp
		if err := db.PingContext(ctx); err != nil {
			out["database"] = StatusDown
		}
	}
	if rdb != nil {
		out["redis"] = StatusUp
		if err := rdb.Ping(ctx).Err(); err != nil {
			out["redis"] = StatusDown
		}
	}
	return out
}
