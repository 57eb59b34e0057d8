package realtime

import (
	"context"
	"fmt"

	"github.com/belgrano/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Broker kinds
const (
	BrokerNone = "none"
	BrokerAMQP = "amqp"
	BrokerSTAN = "stan"
)

// Publisher forwards ticket events to an external message broker
type Publisher interface {
	// Publish sends body under topic (the event type); messageID lets consumers deduplicate
	Publish(ctx context.Context, topic, messageID string, body []byte) error
	Close() error
}

// NoopPublisher is used when no broker is configured
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, string, []byte) error { return nil }
func (NoopPublisher) Close() error { return nil }

// NewPublisher connects to the broker named by cfg.Kind
func NewPublisher(cfg config.BrokerConfig, logger *zap.Logger) (Publisher, error) {
	switch cfg.Kind {
	case "", BrokerNone:
		return NoopPublisher{}, nil
	case BrokerAMQP:
		p, err := DialAMQP(cfg, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case BrokerSTAN:
		p, err := ConnectSTAN(cfg, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported broker kind %q", cfg.Kind)
	}
}
