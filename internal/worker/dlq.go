package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Jobs that exhaust their retries are parked in dlq:{queue}, newest first,
// until an operator lists or requeues them with `ravitoctl dlq`.
const DLQPrefix = "dlq:"

type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      time.Time       `json:"failed_at"`
	Attempts      int             `json:"attempts"`
}

// DeadLetterFunc records a job that will not be retried by its worker.
type DeadLetterFunc func(ctx context.Context, queue, jobType string, payload json.RawMessage, reason string, attempts int)

// RedisDeadLetter parks dead jobs in the DLQ of their queue. A job that cannot
// be parked is only logged.
func RedisDeadLetter(rdb *redis.Client) DeadLetterFunc {
	return func(ctx context.Context, queue, jobType string, payload json.RawMessage, reason string, attempts int) {
		e := DLQEntry{
			OriginalQueue: queue,
			JobType:       jobType,
			Payload:       payload,
			Reason:        reason,
			FailedAt:      time.Now().UTC(),
			Attempts:      attempts,
		}
		if err := PushDLQ(ctx, rdb, e); err != nil {
			log.Error().Err(err).Str("queue", queue).Str("job_type", jobType).Msg("dlq: job lost")
			return
		}
		log.Warn().Str("queue", queue).Str("job_type", jobType).Str("reason", reason).
			Int("attempts", attempts).Msg("dlq: job dead-lettered")
	}
}

func PushDLQ(ctx context.Context, rdb *redis.Client, e DLQEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("dlq entry: %w", err)
	}
	return rdb.LPush(ctx, DLQPrefix+e.OriginalQueue, data).Err()
}

// ListDLQ returns at most limit entries of queue, newest first. Entries that
// do not decode are skipped.
func ListDLQ(ctx context.Context, rdb *redis.Client, queue string, limit int64) ([]DLQEntry, error) {
	raw, err := rdb.LRange(ctx, DLQPrefix+queue, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]DLQEntry, 0, len(raw))
	for _, r := range raw {
		var e DLQEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// RequeueDLQ moves the oldest dead job of queue back onto the queue. It
// reports false when the DLQ is empty.
func RequeueDLQ(ctx context.Context, rdb *redis.Client, queue string) (bool, error) {
	raw, err := rdb.RPop(ctx, DLQPrefix+queue).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var e DLQEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return false, fmt.Errorf("dlq entry: %w", err)
	}
	job, err := json.Marshal(Job{Type: e.JobType, Payload: e.Payload})
	if err != nil {
		return false, err
	}
	return true, rdb.LPush(ctx, queue, job).Err()
}

// DLQLength is reported by the health endpoint.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}
