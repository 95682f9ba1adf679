package claims

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"selfid/internal/identity/models"
	id "selfid/pkg/domain"
	"selfid/pkg/platform/sentinel"
)

const (
	redisClaimKeyPrefix = "selfid:claim:"
	redisTopicKeyPrefix = "selfid:topic:"
)

// RedisStore persists claims in Redis: one JSON value per claim and one list
// per topic index. Calls against a single identity are serialized by the
// hosting layer, so index maintenance does not need cross-client locking.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func claimKey(claimID id.ClaimID) string { return redisClaimKeyPrefix + string(claimID) }
func topicKey(topic id.Topic) string     { return fmt.Sprintf("%s%d", redisTopicKeyPrefix, topic) }

func (s *RedisStore) Put(ctx context.Context, claim models.Claim) (bool, error) {
	existed, err := s.client.Exists(ctx, claimKey(claim.ID)).Result()
	if err != nil {
		return false, fmt.Errorf("check claim existence: %w", err)
	}
	if err := s.write(ctx, s.client, claim, existed == 0); err != nil {
		return false, err
	}
	return existed == 0, nil
}

func (s *RedisStore) PutBatch(ctx context.Context, batch []models.Claim) error {
	// Existence checks up front, then a MULTI/EXEC pipeline so the batch
	// lands atomically.
	created := make([]bool, len(batch))
	for i, claim := range batch {
		existed, err := s.client.Exists(ctx, claimKey(claim.ID)).Result()
		if err != nil {
			return fmt.Errorf("check claim existence: %w", err)
		}
		created[i] = existed == 0
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, claim := range batch {
			if err := s.write(ctx, pipe, claim, created[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put claim batch: %w", err)
	}
	return nil
}

func (s *RedisStore) write(ctx context.Context, c redis.Cmdable, claim models.Claim, created bool) error {
	payload, err := json.Marshal(claim)
	if err != nil {
		return fmt.Errorf("marshal claim: %w", err)
	}
	if err := c.Set(ctx, claimKey(claim.ID), payload, 0).Err(); err != nil {
		return fmt.Errorf("write claim: %w", err)
	}
	if created {
		if err := c.RPush(ctx, topicKey(claim.Topic), string(claim.ID)).Err(); err != nil {
			return fmt.Errorf("index claim: %w", err)
		}
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, claimID id.ClaimID) (models.Claim, error) {
	payload, err := s.client.Get(ctx, claimKey(claimID)).Bytes()
	if err == redis.Nil {
		return models.Claim{}, fmt.Errorf("claim %s: %w", claimID, sentinel.ErrNotFound)
	}
	if err != nil {
		return models.Claim{}, fmt.Errorf("read claim: %w", err)
	}
	var claim models.Claim
	if err := json.Unmarshal(payload, &claim); err != nil {
		return models.Claim{}, fmt.Errorf("unmarshal claim: %w", err)
	}
	return claim, nil
}

func (s *RedisStore) Remove(ctx context.Context, claimID id.ClaimID) (models.Claim, error) {
	claim, err := s.Find(ctx, claimID)
	if err != nil {
		return models.Claim{}, err
	}
	if err := s.client.Del(ctx, claimKey(claimID)).Err(); err != nil {
		return models.Claim{}, fmt.Errorf("delete claim: %w", err)
	}
	// Same swap-with-last strategy as the memory store: move the tail entry
	// into the removed slot.
	key := topicKey(claim.Topic)
	pos, err := s.client.LPos(ctx, key, string(claimID), redis.LPosArgs{}).Result()
	if err != nil && err != redis.Nil {
		return models.Claim{}, fmt.Errorf("locate claim in topic index: %w", err)
	}
	if err == nil {
		last, err := s.client.RPop(ctx, key).Result()
		if err != nil {
			return models.Claim{}, fmt.Errorf("pop topic index tail: %w", err)
		}
		if last != string(claimID) {
			if err := s.client.LSet(ctx, key, pos, last).Err(); err != nil {
				return models.Claim{}, fmt.Errorf("swap topic index entry: %w", err)
			}
		}
	}
	return claim, nil
}

func (s *RedisStore) IDsByTopic(ctx context.Context, topic id.Topic) ([]id.ClaimID, error) {
	members, err := s.client.LRange(ctx, topicKey(topic), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list topic index: %w", err)
	}
	ids := make([]id.ClaimID, 0, len(members))
	for _, member := range members {
		ids = append(ids, id.ClaimID(member))
	}
	return ids, nil
}
