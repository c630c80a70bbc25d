package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"chronos-go/internal/config"
	schedulingdomain "chronos-go/internal/domain/scheduling"
	"chronos-go/pkg/logger"
	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	EncodingJSON    = "json"
	EncodingMsgpack = "msgpack"

	recalculatedSubject = "meeting.recalculated"
)

var ErrNotConnected = errors.New("nats connection is not established")

// INatsConn is the part of *nats.Conn the publisher needs.
type INatsConn interface {
	IsConnected() bool
	Publish(subj string, data []byte) error
}

type Publisher struct {
	conn    INatsConn
	prefix  string
	marshal func(v interface{}) ([]byte, error)
	log     logger.Logger
}

func NewPublisher(conn INatsConn, cfg config.NATSConfig, log logger.Logger) (*Publisher, error) {
	var marshal func(v interface{}) ([]byte, error)
	switch strings.ToLower(cfg.Encoding) {
	case "", EncodingJSON:
		marshal = json.Marshal
	case EncodingMsgpack:
		marshal = msgpack.Marshal
	default:
		return nil, fmt.Errorf("unsupported event encoding %q", cfg.Encoding)
	}

	return &Publisher{
		conn:    conn,
		prefix:  strings.Trim(cfg.SubjectPrefix, "."),
		marshal: marshal,
		log:     log,
	}, nil
}

func (p *Publisher) subject(name string) string {
	if p.prefix == "" {
		return name
	}
	return p.prefix + "." + name
}

func (p *Publisher) PublishRecalculated(ctx context.Context, event schedulingdomain.RecalculatedEvent) error {
	return p.publish(ctx, p.subject(recalculatedSubject), event)
}

func (p *Publisher) publish(ctx context.Context, subject string, payload interface{}) error {
	if !p.conn.IsConnected() {
		return ErrNotConnected
	}

	data, err := p.marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.log.WithContext(ctx).Debug("events: published", "subject", subject, "bytes", len(data))
	return nil
}

// Connect dials NATS and keeps reconnecting in the background.
func Connect(cfg config.NATSConfig, serviceName string, log logger.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(
		cfg.URL,
		nats.Name(serviceName),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("events: nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("events: nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return conn, nil
}
