package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

const (
	redisRecordPrefix = "shortsvault:record:"
	redisIndexKey     = "shortsvault:records"
)

// RedisStore keeps each record in a hash so a write only touches the
// fields it names
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects using a redis:// URL
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}

	return &RedisStore{rdb: rdb}, nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func redisKey(resourceID string) string {
	return redisRecordPrefix + resourceID
}

// Get reads the record hash
func (s *RedisStore) Get(ctx context.Context, resourceID string) (*Record, error) {
	fields, err := s.rdb.HGetAll(ctx, redisKey(resourceID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", resourceID, err)
	}
	if len(fields) == 0 {
		return nil, types.ErrRecordNotFound
	}
	return recordFromHash(resourceID, fields), nil
}

// Upsert applies the patch inside MULTI/EXEC
func (s *RedisStore) Upsert(ctx context.Context, resourceID string, patch Patch) error {
	if patch.IsEmpty() {
		return nil
	}
	key := redisKey(resourceID)

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if patch.Source != "" {
			pipe.HSetNX(ctx, key, "source", string(patch.Source))
		}
		values := map[string]any{
			"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
		}
		if patch.RawMetadata != nil {
			values["raw_metadata"] = string(patch.RawMetadata)
		}
		if patch.Transcript != nil {
			values["transcript"] = *patch.Transcript
		}
		if patch.Summary != nil {
			values["summary"] = *patch.Summary
		}
		pipe.HSet(ctx, key, values)
		pipe.SAdd(ctx, redisIndexKey, resourceID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert record %s: %v", resourceID, err)
	}
	return nil
}

// List reads every indexed record
func (s *RedisStore) List(ctx context.Context) ([]Record, error) {
	ids, err := s.rdb.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %v", err)
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, redisKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %v", err)
	}

	records := make([]Record, 0, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		records = append(records, *recordFromHash(ids[i], fields))
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})
	return records, nil
}

// Close closes the client
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func recordFromHash(resourceID string, fields map[string]string) *Record {
	rec := &Record{
		ResourceID:  resourceID,
		Source:      decodeSource(resourceID, fields["source"]),
		RawMetadata: decodeRaw(resourceID, fields["raw_metadata"]),
	}
	if v, ok := fields["transcript"]; ok {
		rec.Transcript = &v
	}
	if v, ok := fields["summary"]; ok {
		rec.Summary = &v
	}
	if ts, err := time.Parse(time.RFC3339Nano, fields["updated_at"]); err == nil {
		rec.UpdatedAt = ts
	}
	return rec
}
