package throttle

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript mirrors ApplyCredit on a hash {used, period, last_used_at}.
// ARGV: period key, now in unix millis, limit (-1 unlimited), ttl millis.
// Returns {allowed, used}.
var consumeScript = redis.NewScript(`
local used = tonumber(redis.call('HGET', KEYS[1], 'used') or '0')
local period = tonumber(redis.call('HGET', KEYS[1], 'period') or '-1')
local current = tonumber(ARGV[1])
if period ~= current then
	used = 0
end
local limit = tonumber(ARGV[3])
if limit >= 0 and used >= limit then
	return {0, used}
end
used = used + 1
redis.call('HSET', KEYS[1], 'used', used, 'period', current, 'last_used_at', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return {1, used}
`)

// counterTTL keeps a counter alive past the end of its month
const counterTTL = 62 * 24 * time.Hour

// RedisCounterStore counters shared by every instance through Redis
type RedisCounterStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

var _ CounterStore = (*RedisCounterStore)(nil)

// NewRedisCounterStore creates the store; keys are keyPrefix+groupID
func NewRedisCounterStore(client redis.UniversalClient, keyPrefix string) *RedisCounterStore {
	if keyPrefix == "" {
		keyPrefix = "quota:api_credits:"
	}
	return &RedisCounterStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisCounterStore) buildKey(groupID uint64) string {
	return s.keyPrefix + strconv.FormatUint(groupID, 10)
}

// Consume runs the script; Redis executes it atomically
func (s *RedisCounterStore) Consume(ctx context.Context, groupID uint64, now time.Time, limit *int64) (Decision, error) {
	limitArg := int64(-1)
	if limit != nil {
		limitArg = *limit
	}

	res, err := consumeScript.Run(ctx, s.client,
		[]string{s.buildKey(groupID)},
		PeriodKey(now), now.UnixMilli(), limitArg, counterTTL.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("redis consume api credit of group %d: %w", groupID, err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("redis consume api credit: unexpected reply %v", res)
	}

	decision := Decision{Allowed: res[0] == 1, Used: res[1], Limit: limit}
	if !decision.Allowed {
		decision.RetryAt = NextPeriodStart(now)
	}
	return decision, nil
}

// Usage stored counter of groupID
func (s *RedisCounterStore) Usage(ctx context.Context, groupID uint64) (Usage, error) {
	vals, err := s.client.HGetAll(ctx, s.buildKey(groupID)).Result()
	if err != nil {
		return Usage{}, fmt.Errorf("redis read api credits: %w", err)
	}
	if len(vals) == 0 {
		return Usage{}, nil
	}

	used, err := strconv.ParseInt(vals["used"], 10, 64)
	if err != nil {
		return Usage{}, fmt.Errorf("parse used failed: %w", err)
	}
	usage := Usage{Used: used}
	if ms, err := strconv.ParseInt(vals["last_used_at"], 10, 64); err == nil {
		at := time.UnixMilli(ms).UTC()
		usage.LastUsedAt = &at
	}
	return usage, nil
}
