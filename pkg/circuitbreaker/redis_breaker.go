package circuitbreaker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisBreaker keeps breaker state in Redis so every replica of the service
// sees the same circuit.
type RedisBreaker struct {
	// Redis client used to read and update the circuit state.
	rdb *redis.Client
	// Name of the breaker, combined with the prefix to build Redis keys.
	name string
	// Defines the behaviour and timing characteristics of the breaker.
	opts   Options
	logger *slog.Logger
	// Lua scripts that read and move the state atomically.
	allowScript *redis.Script
	failScript  *redis.Script
}

// KEYS: open, tripped, half
// ARGV: half-open lease ms
var allowLua = `
	local openKey    = KEYS[1]
	local trippedKey = KEYS[2]
	local halfKey    = KEYS[3]

	local leaseMs = tonumber(ARGV[1])

	if redis.call("EXISTS", openKey) == 1 then
		return "open"
	end

	if redis.call("EXISTS", trippedKey) == 0 then
		return "closed"
	end

	-- cooldown elapsed: a single caller holds the probe lease
	if redis.call("SET", halfKey, "1", "NX", "PX", leaseMs) then
		return "probe"
	end
	return "half-open"
	`

// KEYS: fails, open, half, tripped
// ARGV: fail window ms, threshold, open cooldown ms
var failLua = `
	local failsKey   = KEYS[1]
	local openKey    = KEYS[2]
	local halfKey    = KEYS[3]
	local trippedKey = KEYS[4]

	local failWindowMs   = tonumber(ARGV[1])
	local threshold      = tonumber(ARGV[2])
	local openCooldownMs = tonumber(ARGV[3])

	if redis.call("EXISTS", openKey) == 1 then
		return "open"
	end

	-- failed probe goes straight back to open
	if redis.call("EXISTS", trippedKey) == 1 then
		redis.call("SET", openKey, "1", "PX", openCooldownMs)
		redis.call("DEL", halfKey)
		return "reopened"
	end

	local fails = redis.call("INCR", failsKey)

	-- rolling window
	if redis.call("PTTL", failsKey) < 0 then
		redis.call("PEXPIRE", failsKey, failWindowMs)
	end

	if fails >= threshold then
		redis.call("SET", openKey, "1", "PX", openCooldownMs)
		redis.call("SET", trippedKey, "1")
		redis.call("DEL", failsKey)
		redis.call("DEL", halfKey)
		return "opened"
	end

	return "closed"
	`

func NewRedisBreaker(rdb *redis.Client, name string, opts Options, logger *slog.Logger) *RedisBreaker {
	if opts.FailureThreshold <= 0 {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RedisBreaker{
		rdb:  rdb,
		name: name,
		opts: opts,
		logger: logger.With(
			slog.String("component", "circuitbreaker"),
			slog.String("breaker", name),
		),
		allowScript: redis.NewScript(allowLua),
		failScript:  redis.NewScript(failLua),
	}
}

func (b *RedisBreaker) keys() (openKey, failsKey, halfKey, trippedKey string) {
	prefix := b.opts.Prefix + b.name + ":"
	return prefix + "open", prefix + "fails", prefix + "half", prefix + "tripped"
}

func (b *RedisBreaker) Allow(ctx context.Context) error {
	openKey, _, halfKey, trippedKey := b.keys()

	state, err := b.allowScript.Run(ctx, b.rdb,
		[]string{openKey, trippedKey, halfKey},
		b.opts.HalfOpenLease.Milliseconds(),
	).Text()
	if err != nil {
		if b.opts.FailOpen {
			b.logger.WarnContext(ctx, "breaker state unavailable, allowing call", "err", err)
			return nil
		}
		return fmt.Errorf("read breaker state: %w", err)
	}

	switch state {
	case "open", "half-open":
		return ErrOpen
	case "probe":
		b.logger.InfoContext(ctx, "breaker half-open, probing")
	}
	return nil
}

func (b *RedisBreaker) OnSuccess(ctx context.Context) {
	_, failsKey, halfKey, trippedKey := b.keys()

	closed, err := b.rdb.Del(ctx, trippedKey).Result()
	if err != nil {
		b.logger.WarnContext(ctx, "breaker success not recorded", "err", err)
		return
	}
	if closed > 0 {
		b.logger.InfoContext(ctx, "breaker closed")
	}

	if err := b.rdb.Del(ctx, failsKey, halfKey).Err(); err != nil {
		b.logger.WarnContext(ctx, "breaker counters not reset", "err", err)
	}
}

func (b *RedisBreaker) OnFailure(ctx context.Context) {
	openKey, failsKey, halfKey, trippedKey := b.keys()

	state, err := b.failScript.Run(ctx, b.rdb,
		[]string{failsKey, openKey, halfKey, trippedKey},
		b.opts.FailWindow.Milliseconds(),
		b.opts.FailureThreshold,
		b.opts.OpenCoolDown.Milliseconds(),
	).Text()
	if err != nil {
		b.logger.WarnContext(ctx, "breaker failure not recorded", "err", err)
		return
	}

	if state == "opened" || state == "reopened" {
		b.logger.WarnContext(ctx, "breaker "+state, "cooldown", b.opts.OpenCoolDown)
	}
}

func (b *RedisBreaker) State(ctx context.Context) (State, error) {
	openKey, _, _, trippedKey := b.keys()

	open, err := b.rdb.Exists(ctx, openKey).Result()
	if err != nil {
		return "", err
	}
	if open == 1 {
		return StateOpen, nil
	}

	tripped, err := b.rdb.Exists(ctx, trippedKey).Result()
	if err != nil {
		return "", err
	}
	if tripped == 1 {
		return StateHalfOpen, nil
	}
	return StateClosed, nil
}
