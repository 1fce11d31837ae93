// Package redis publishes signal events and backtest summaries to Redis.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tradesignals/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	defaultStreamMaxLen = 5000
	defaultTimeout      = 5 * time.Second
)

// PublisherConfig configures the Redis publisher.
type PublisherConfig struct {
	Addr         string // Redis address, e.g. "localhost:6379"
	Password     string
	DB           int
	StreamMaxLen int64 // approximate cap per signal stream, default 5000
}

// Publisher writes signal events to Redis Streams and the latest run
// summary to a plain key. Every pipeline goes through a Breaker.
type Publisher struct {
	client  *goredis.Client
	breaker *Breaker
	maxLen  int64
	log     *slog.Logger
}

var _ model.SignalPublisher = (*Publisher)(nil)

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// New creates a Publisher and pings the server.
func New(cfg PublisherConfig) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	maxLen := cfg.StreamMaxLen
	if maxLen <= 0 {
		maxLen = defaultStreamMaxLen
	}
	logger := slog.Default().With("component", "redis")
	b := NewBreaker(3, 10*time.Second)
	b.OnChange = func(from, to BreakerState) {
		logger.Warn("redis breaker state change", "from", from.String(), "to", to.String())
	}
	logger.Info("connected", "addr", cfg.Addr)
	return &Publisher{client: client, breaker: b, maxLen: maxLen, log: logger}, nil
}

// StreamKey returns the stream holding events for one strategy,
// indicator and symbol: "signal:{strategy}:{indicator}:{symbol}".
func StreamKey(strategy, indicator, symbol string) string {
	return "signal:" + strategy + ":" + indicator + ":" + symbol
}

// SummaryKey returns the key holding the latest run summary for symbol.
func SummaryKey(symbol string) string {
	return "backtest:latest:" + symbol
}

// SummaryChannel is the pubsub channel announcing new summaries.
func SummaryChannel(symbol string) string {
	return "pub:backtest:" + symbol
}

// PublishSignals XADDs every non-hold event to its stream in one pipeline.
func (p *Publisher) PublishSignals(ctx context.Context, events []model.SignalEvent) error {
	args := xaddArgs(events, p.maxLen)
	if len(args) == 0 {
		return nil
	}
	err := p.breaker.Do(func() error {
		pipe := p.client.Pipeline()
		for _, a := range args {
			pipe.XAdd(ctx, a)
		}
		_, err := pipe.Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("redis publish %d signals: %w", len(args), err)
	}
	p.log.Debug("signals published", "count", len(args))
	return nil
}

// PublishSummary stores data under SummaryKey(symbol) and announces it on
// SummaryChannel(symbol).
func (p *Publisher) PublishSummary(ctx context.Context, symbol string, data []byte) error {
	err := p.breaker.Do(func() error {
		pipe := p.client.Pipeline()
		pipe.Set(ctx, SummaryKey(symbol), data, 0)
		pipe.Publish(ctx, SummaryChannel(symbol), data)
		_, err := pipe.Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("redis publish summary %s: %w", symbol, err)
	}
	return nil
}

// LatestSummary reads the stored summary for symbol, or nil when absent.
func (p *Publisher) LatestSummary(ctx context.Context, symbol string) ([]byte, error) {
	b, err := p.client.Get(ctx, SummaryKey(symbol)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis GET %s: %w", SummaryKey(symbol), err)
	}
	return b, nil
}

// ReadSignals returns the events stored in a signal stream, oldest first.
func (p *Publisher) ReadSignals(ctx context.Context, stream string) ([]model.SignalEvent, error) {
	msgs, err := p.client.XRange(ctx, stream, "-", "+").Result()
	if err != nil {
		return nil, fmt.Errorf("redis XRANGE %s: %w", stream, err)
	}
	out := make([]model.SignalEvent, 0, len(msgs))
	for _, m := range msgs {
		ev, err := decodeEvent(m.Values)
		if err != nil {
			return nil, fmt.Errorf("stream %s entry %s: %w", stream, m.ID, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}

func xaddArgs(events []model.SignalEvent, maxLen int64) []*goredis.XAddArgs {
	args := make([]*goredis.XAddArgs, 0, len(events))
	for i := range events {
		ev := &events[i]
		if ev.Action == model.SignalHold.String() {
			continue
		}
		args = append(args, &goredis.XAddArgs{
			Stream: StreamKey(ev.Strategy, ev.Indicator, ev.Symbol),
			MaxLen: maxLen,
			Approx: true,
			Values: map[string]interface{}{"data": string(ev.JSON())},
		})
	}
	return args
}
