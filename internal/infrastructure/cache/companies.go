package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/company"
	"github.com/Colossus92/eazy-recycling-sub004/pkg/logger"
)

// DefaultCompanyTTL bounds how stale a cached registry entry can be.
const DefaultCompanyTTL = 10 * time.Minute

const (
	companyPrefix = KeyPrefix + "company:"
	kvkPrefix     = KeyPrefix + "company:kvk:"
	projectPrefix = KeyPrefix + "project:"
)

// Companies is a read-through cache in front of a company.Lookup.
// Redis failures fall back to the lookup; misses are never cached.
type Companies struct {
	next   company.Lookup
	client redis.UniversalClient
	ttl    time.Duration
}

var _ company.Lookup = (*Companies)(nil)

// NewCompanies wraps next. A non-positive ttl uses DefaultCompanyTTL.
func NewCompanies(next company.Lookup, client redis.UniversalClient, ttl time.Duration) *Companies {
	if ttl <= 0 {
		ttl = DefaultCompanyTTL
	}
	return &Companies{next: next, client: client, ttl: ttl}
}

func (c *Companies) GetByID(ctx context.Context, companyID id.ID) (*company.Company, error) {
	return readThrough(ctx, c, companyPrefix+companyID.String(), func() (*company.Company, error) {
		return c.next.GetByID(ctx, companyID)
	})
}

func (c *Companies) FindByChamberOfCommerceID(ctx context.Context, kvk string) (*company.Company, error) {
	return readThrough(ctx, c, kvkPrefix+kvk, func() (*company.Company, error) {
		return c.next.FindByChamberOfCommerceID(ctx, kvk)
	})
}

func (c *Companies) GetProject(ctx context.Context, projectID id.ID) (*company.Project, error) {
	return readThrough(ctx, c, projectPrefix+projectID.String(), func() (*company.Project, error) {
		return c.next.GetProject(ctx, projectID)
	})
}

// Invalidate drops the cached entries of a company. The registry calls
// it after an edit.
func (c *Companies) Invalidate(ctx context.Context, co *company.Company) error {
	keys := []string{companyPrefix + co.ID.String()}
	if co.ChamberOfCommerceID != "" {
		keys = append(keys, kvkPrefix+co.ChamberOfCommerceID)
	}
	return c.client.Del(ctx, keys...).Err()
}

func readThrough[T any](ctx context.Context, c *Companies, key string, load func() (*T, error)) (*T, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		if jsonErr := json.Unmarshal(raw, &v); jsonErr == nil {
			return &v, nil
		}
		logger.Warn(ctx, "dropping undecodable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		logger.Warn(ctx, "company cache unavailable", "key", key, "error", err)
	}

	v, err := load()
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(v); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			logger.Warn(ctx, "company cache write failed", "key", key, "error", err)
		}
	}
	return v, nil
}
