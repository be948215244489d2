// Package events publishes order domain events to Kafka.
package events

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/xenking/fzokart/internal/domain/order"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("publisher closed")

// Writer is the subset of *kafka.Writer used by the publisher.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config holds Kafka publisher settings.
type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	WriteTimeout time.Duration
}

var _ order.Publisher = (*Publisher)(nil)

// Publisher writes order events keyed by order id, so that events of one
// order land on the same partition.
type Publisher struct {
	w            Writer
	writeTimeout time.Duration
	closed       atomic.Bool
}

// NewKafkaWriter builds an asynchronous kafka.Writer for cfg. WriteMessages
// only enqueues, so checkout never waits on the brokers; delivery failures
// are logged from the completion callback.
func NewKafkaWriter(cfg Config, lg *zap.Logger) *kafka.Writer {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = 10 * time.Millisecond
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion:             completionLogger(cfg.Topic, lg),
		Transport: &kafka.Transport{
			Dial: (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		},
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			lg.Sugar().Warnf("kafka: "+msg, args...)
		}),
	}
}

func completionLogger(topic string, lg *zap.Logger) func([]kafka.Message, error) {
	return func(msgs []kafka.Message, err error) {
		if err == nil {
			return
		}
		lg.Warn("Order events not delivered",
			zap.String("topic", topic),
			zap.Int("count", len(msgs)),
			zap.Error(err),
		)
	}
}

// NewPublisher wraps w. A zero writeTimeout selects five seconds.
func NewPublisher(w Writer, writeTimeout time.Duration) *Publisher {
	if writeTimeout == 0 {
		writeTimeout = 5 * time.Second
	}
	return &Publisher{w: w, writeTimeout: writeTimeout}
}

// Publish implements order.Publisher.
func (p *Publisher) Publish(ctx context.Context, e order.Event) error {
	if p.closed.Load() {
		return ErrClosed
	}
	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(e.OrderID),
		Value: Encode(e),
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
		Time: e.OccurredAt,
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "write %s", e.Type)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.w.Close()
}

// Encode renders e as a JSON document.
func Encode(e order.Event) []byte {
	var enc jx.Encoder
	enc.Obj(func(enc *jx.Encoder) {
		enc.Field("type", func(enc *jx.Encoder) { enc.Str(e.Type) })
		enc.Field("orderId", func(enc *jx.Encoder) { enc.Str(e.OrderID) })
		enc.Field("orderNumber", func(enc *jx.Encoder) { enc.Str(e.OrderNumber) })
		enc.Field("userId", func(enc *jx.Encoder) { enc.Str(e.UserID) })
		enc.Field("status", func(enc *jx.Encoder) { enc.Str(string(e.Status)) })
		enc.Field("totalAmount", func(enc *jx.Encoder) { enc.Str(e.Total.StringFixed(2)) })
		enc.Field("occurredAt", func(enc *jx.Encoder) { enc.Str(e.OccurredAt.UTC().Format(time.RFC3339Nano)) })
	})
	return enc.Bytes()
}
