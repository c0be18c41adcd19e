package userquota

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/qatarliving/subscriptions/pkg/redis"
)

// redisMirror keeps one hash per user; each field is a transaction id and
// each value the JSON-encoded record. HSET/HDEL are atomic per command, so
// concurrent purchases for the same user merge instead of clobbering each
// other.
type redisMirror struct {
	client    goredis.UniversalClient
	keyPrefix string
}

// NewRedisMirror returns a Mirror backed by the given Redis client.
func NewRedisMirror(client goredis.UniversalClient) Mirror {
	return &redisMirror{client: client, keyPrefix: "userquota:"}
}

// NewRedisMirrorFromConfig connects to Redis with the shared connection
// helper and wraps the client in a Mirror.
func NewRedisMirrorFromConfig(ctx context.Context, cfg redis.Config) (Mirror, error) {
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisMirror(client), nil
}

func (m *redisMirror) key(userID string) string {
	return m.keyPrefix + userID
}

func (m *redisMirror) Upsert(ctx context.Context, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("userquota: encode record: %w", err)
	}
	if err := m.client.HSet(ctx, m.key(rec.UserID), rec.TransactionID.String(), raw).Err(); err != nil {
		return fmt.Errorf("userquota: upsert record: %w", err)
	}
	return nil
}

func (m *redisMirror) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	fields, err := m.client.HGetAll(ctx, m.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("userquota: list records: %w", err)
	}

	records := make([]Record, 0, len(fields))
	for _, raw := range fields {
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("userquota: decode record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (m *redisMirror) Remove(ctx context.Context, userID string, transactionID uuid.UUID) error {
	removed, err := m.client.HDel(ctx, m.key(userID), transactionID.String()).Result()
	if err != nil {
		return fmt.Errorf("userquota: remove record: %w", err)
	}
	if removed == 0 {
		return ErrRecordNotFound
	}
	return nil
}
