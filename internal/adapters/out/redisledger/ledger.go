// Package redisledger keeps automation run leases in Redis. It is the alternative to the
// Postgres ledger for deployments where several replicas share a Redis instance.
package redisledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

const (
	leaseKeyPrefix   = "automation:lease:%s"
	currentKeyPrefix = "automation:current:%s"
	runKeyPrefix     = "automation:run:%s"
	kindRunsPrefix   = "automation:runs:%s"
	allRunsKey       = "automation:runs"

	// Run records outlive their lease so the history stays readable.
	recordTTL    = 7 * 24 * time.Hour
	historyLimit = 500
)

// replaceWhileRunning overwrites a run record only while the stored one is still running.
// When a lease key is passed it is deleted if it still holds the run id.
//
// Returns -1 when the record is gone, 0 when it was already closed and 1 on success.
var replaceWhileRunning = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if not current then
	return -1
end
if cjson.decode(current).status ~= "running" then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
if KEYS[2] and redis.call("GET", KEYS[2]) == ARGV[3] then
	redis.call("DEL", KEYS[2])
end
return 1
`)

// releaseLease deletes the lease key only if it still holds the run id.
var releaseLease = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Ledger implements ports.RunLedger with SET NX PX leases.
type Ledger struct {
	redis *redis.Client
}

func NewLedger(client *redis.Client) *Ledger {
	return &Ledger{redis: client}
}

// Acquire takes the lease key of run.Kind for the lease TTL. Only the winner touches
// the previous run: if it is still marked running its lease has expired, so it is
// closed as failed.
func (l *Ledger) Acquire(ctx context.Context, run automation.Run) error {
	ttl := run.ExpiresAt.Sub(run.StartedAt)
	if ttl <= 0 {
		return errs.NewValueIsOutOfRangeError("lease ttl", ttl, "> 0", "unbounded")
	}

	ok, err := l.redis.SetNX(ctx, leaseKey(run.Kind), run.ID.String(), ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return automation.ErrAlreadyRunning
	}

	if err = l.store(ctx, run); err != nil {
		_ = releaseLease.Run(ctx, l.redis, []string{leaseKey(run.Kind)}, run.ID.String()).Err()
		return err
	}
	return nil
}

func (l *Ledger) store(ctx context.Context, run automation.Run) error {
	if err := l.reclaimPrevious(ctx, run); err != nil {
		return err
	}

	payload, err := encode(run)
	if err != nil {
		return err
	}
	id := run.ID.String()

	_, err = l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, runKey(id), payload, recordTTL)
		pipe.Set(ctx, currentKey(run.Kind), id, recordTTL)
		for _, list := range []string{allRunsKey, kindRunsKey(run.Kind)} {
			pipe.LPush(ctx, list, id)
			pipe.LTrim(ctx, list, 0, historyLimit-1)
		}
		return nil
	})
	return err
}

func (l *Ledger) reclaimPrevious(ctx context.Context, run automation.Run) error {
	prevID, err := l.redis.Get(ctx, currentKey(run.Kind)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	raw, err := l.redis.Get(ctx, runKey(prevID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	prev, err := decode(raw)
	if err != nil {
		return fmt.Errorf("decode run %s: %w", prevID, err)
	}
	if prev.Status != automation.RunRunning {
		return nil
	}

	payload, err := encode(prev.Reclaim(run.StartedAt))
	if err != nil {
		return err
	}
	return replaceWhileRunning.Run(ctx, l.redis,
		[]string{runKey(prevID)},
		payload, recordTTL.Milliseconds(),
	).Err()
}

// Finish stores the closed run and releases its lease. It fails with a conflict when
// the run was reclaimed or its record is gone.
func (l *Ledger) Finish(ctx context.Context, run automation.Run) error {
	payload, err := encode(run)
	if err != nil {
		return err
	}
	id := run.ID.String()

	res, err := replaceWhileRunning.Run(ctx, l.redis,
		[]string{runKey(id), leaseKey(run.Kind)},
		payload, recordTTL.Milliseconds(), id,
	).Int()
	if err != nil {
		return err
	}
	if res != 1 {
		return errs.NewConflictError("automation run", id)
	}
	return nil
}

// ListRecent reads the history list and skips records that have already expired.
func (l *Ledger) ListRecent(ctx context.Context, kind automation.Kind, limit int) ([]automation.Run, error) {
	list := allRunsKey
	if kind != "" {
		list = kindRunsKey(kind)
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := l.redis.LRange(ctx, list, 0, stop).Result()
	if err != nil {
		return nil, err
	}
	runs := make([]automation.Run, 0, len(ids))
	if len(ids) == 0 {
		return runs, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = runKey(id)
	}
	values, err := l.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		r, decodeErr := decode([]byte(raw))
		if decodeErr != nil {
			return nil, fmt.Errorf("decode run %s: %w", ids[i], decodeErr)
		}
		runs = append(runs, r)
	}
	return runs, nil
}

func leaseKey(kind automation.Kind) string {
	return fmt.Sprintf(leaseKeyPrefix, kind.String())
}

func currentKey(kind automation.Kind) string {
	return fmt.Sprintf(currentKeyPrefix, kind.String())
}

func runKey(id string) string {
	return fmt.Sprintf(runKeyPrefix, id)
}

func kindRunsKey(kind automation.Kind) string {
	return fmt.Sprintf(kindRunsPrefix, kind.String())
}
