// Package journal stores run records in Redis for the read API.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/showkit/showrunner/pkg/api"
	"github.com/showkit/showrunner/pkg/log"
)

// Journal persists run records as JSON under a configurable key prefix,
// with an optional TTL on each record
type Journal struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var ErrRunNotFound = errors.New("run not found")

// New creates a journal over an existing Redis client
func New(client *redis.Client, prefix string, ttl time.Duration) *Journal {
	return &Journal{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// SaveRun upserts a run record and adds it to the run index
func (j *Journal) SaveRun(ctx context.Context, rec *api.RunRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	if err := j.client.Set(
		ctx, j.runKey(rec.ID), data, j.ttl,
	).Err(); err != nil {
		return err
	}
	return j.client.SAdd(ctx, j.indexKey(), string(rec.ID)).Err()
}

// GetRun retrieves a run record by ID
func (j *Journal) GetRun(
	ctx context.Context, id api.RunID,
) (*api.RunRecord, error) {
	data, err := j.client.Get(ctx, j.runKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec api.RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRuns returns every run still present in the journal. IDs whose
// records have expired are pruned from the index as they are encountered
func (j *Journal) ListRuns(ctx context.Context) ([]*api.RunRecord, error) {
	ids, err := j.client.SMembers(ctx, j.indexKey()).Result()
	if err != nil {
		return nil, err
	}

	recs := make([]*api.RunRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := j.GetRun(ctx, api.RunID(id))
		if errors.Is(err, ErrRunNotFound) {
			if err := j.client.SRem(
				ctx, j.indexKey(), id,
			).Err(); err != nil {
				slog.Warn("Failed to prune run index",
					log.RunID(api.RunID(id)),
					log.Error(err))
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (j *Journal) runKey(id api.RunID) string {
	return j.prefix + ":run:" + string(id)
}

func (j *Journal) indexKey() string {
	return j.prefix + ":runs"
}
