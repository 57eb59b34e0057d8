package realtime

import (
	"context"
	"fmt"
	"os"

	"github.com/belgrano/backend/internal/infrastructure/config"
	stan "github.com/nats-io/stan.go"
	"go.uber.org/zap"
)

// stanConn is the subset of stan.Conn the publisher needs
type stanConn interface {
	Publish(subject string, data []byte) error
	Close() error
}

// STANPublisher publishes ticket events to NATS Streaming, one subject per event type
type STANPublisher struct {
	conn    stanConn
	subject string
}

// ConnectSTAN connects to the NATS Streaming cluster
func ConnectSTAN(cfg config.BrokerConfig, logger *zap.Logger) (*STANPublisher, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		host, _ := os.Hostname()
		clientID = fmt.Sprintf("belgrano-tickets-%s-%d", host, os.Getpid())
	}
	sc, err := stan.Connect(cfg.ClusterID, clientID, stan.NatsURL(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("stan connect: %w", err)
	}
	logger.Info("STAN publisher ready",
		zap.String("cluster_id", cfg.ClusterID),
		zap.String("client_id", clientID),
		zap.String("subject", cfg.Subject))
	return newSTANPublisher(sc, cfg.Subject), nil
}

func newSTANPublisher(conn stanConn, subject string) *STANPublisher {
	if subject == "" {
		subject = "belgrano.tickets"
	}
	return &STANPublisher{conn: conn, subject: subject}
}

// Publish sends body to "<subject>.<topic>"; STAN has no per-message id header
// so consumers deduplicate on the event_id inside the payload.
func (p *STANPublisher) Publish(_ context.Context, topic, _ string, body []byte) error {
	subject := p.subject + "." + topic
	if err := p.conn.Publish(subject, body); err != nil {
		return fmt.Errorf("stan publish %s: %w", subject, err)
	}
	return nil
}

// Close closes the streaming connection
func (p *STANPublisher) Close() error {
	return p.conn.Close()
}
