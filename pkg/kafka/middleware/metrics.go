package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"clinic/pkg/kafka"
)

// Counters tracks publish and consume outcomes for one process.
type Counters struct {
	published     atomic.Int64
	publishFailed atomic.Int64
	publishNanos  atomic.Int64
	consumed      atomic.Int64
	consumeFailed atomic.Int64
	consumeNanos  atomic.Int64
}

type Snapshot struct {
	Published         int64         `json:"published"`
	PublishFailed     int64         `json:"publish_failed"`
	AvgPublishLatency time.Duration `json:"avg_publish_latency_ns"`
	Consumed          int64         `json:"consumed"`
	ConsumeFailed     int64         `json:"consume_failed"`
	AvgConsumeLatency time.Duration `json:"avg_consume_latency_ns"`
}

func NewCounters() *Counters {
	return &Counters{}
}

func (c *Counters) Producer() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		c.publishNanos.Add(int64(time.Since(start)))
		if err != nil {
			c.publishFailed.Add(1)
		} else {
			c.published.Add(1)
		}
		return err
	}
}

func (c *Counters) Consumer() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		c.consumeNanos.Add(int64(time.Since(start)))
		if err != nil {
			c.consumeFailed.Add(1)
		} else {
			c.consumed.Add(1)
		}
		return err
	}
}

func (c *Counters) Snapshot() Snapshot {
	s := Snapshot{
		Published:     c.published.Load(),
		PublishFailed: c.publishFailed.Load(),
		Consumed:      c.consumed.Load(),
		ConsumeFailed: c.consumeFailed.Load(),
	}
	if n := s.Published + s.PublishFailed; n > 0 {
		s.AvgPublishLatency = time.Duration(c.publishNanos.Load() / n)
	}
	if n := s.Consumed + s.ConsumeFailed; n > 0 {
		s.AvgConsumeLatency = time.Duration(c.consumeNanos.Load() / n)
	}
	return s
}
