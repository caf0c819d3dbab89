package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/astro-analytics/video-tagging-go/internal/config"
	"github.com/astro-analytics/video-tagging-go/internal/export"
	"github.com/astro-analytics/video-tagging-go/pkg/logger"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const confirmTimeout = 5 * time.Second

// ExportPublisher sends ML export documents to a RabbitMQ topic exchange
// with publisher confirms.
type ExportPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *config.RabbitMQConfig
	mu      sync.Mutex
}

func NewExportPublisher(cfg *config.RabbitMQConfig) (*ExportPublisher, error) {
	p := &ExportPublisher{
		config: cfg,
	}

	if err := p.connect(); err != nil {
		return nil, err
	}

	return p, nil
}

func amqpURL(cfg *config.RabbitMQConfig) string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/",
	}
	return u.String()
}

func (p *ExportPublisher) connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, err := amqp.Dial(amqpURL(p.config))
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	fail := func(format string, err error) error {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf(format, err)
	}

	if err := ch.Confirm(false); err != nil {
		return fail("failed to enable publisher confirms: %w", err)
	}

	if err := ch.ExchangeDeclare(
		p.config.Exchange, // name
		"topic",           // type
		true,              // durable
		false,             // auto-deleted
		false,             // internal
		false,             // no-wait
		nil,               // arguments
	); err != nil {
		return fail("failed to declare exchange: %w", err)
	}

	if p.config.Queue != "" {
		if _, err := ch.QueueDeclare(
			p.config.Queue, // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			amqp.Table{
				"x-message-ttl": 7 * 86400000, // a week, matching record retention
			},
		); err != nil {
			return fail("failed to declare queue: %w", err)
		}

		if err := ch.QueueBind(
			p.config.Queue,      // queue name
			p.config.RoutingKey, // routing key
			p.config.Exchange,   // exchange
			false,
			nil,
		); err != nil {
			return fail("failed to bind queue: %w", err)
		}
	}

	p.conn = conn
	p.channel = ch

	logger.Log.Info("Connected to RabbitMQ",
		zap.String("exchange", p.config.Exchange),
		zap.String("queue", p.config.Queue),
		zap.String("routingKey", p.config.RoutingKey),
	)

	return nil
}

// PublishMLDocument publishes doc as a persistent JSON message and waits
// for the broker to confirm it.
func (p *ExportPublisher) PublishMLDocument(ctx context.Context, doc *export.MLDocument) error {
	// Confirmations arrive in publish order on the channel, so publishes
	// are serialized to pair each message with its confirm.
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return fmt.Errorf("channel is not initialized")
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal ML document: %w", err)
	}

	messageID := uuid.New().String()
	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		p.config.Exchange,   // exchange
		p.config.RoutingKey, // routing key
		false,               // mandatory
		false,               // immediate
		amqp.Publishing{
			ContentType:  export.ContentTypeJSON,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			MessageId:    messageID,
			Type:         "ml_export",
			Headers: amqp.Table{
				"videoId": doc.Metadata.VideoID,
				"version": doc.Metadata.Version,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()

	acked, err := confirm.WaitContext(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("timeout waiting for publish confirmation")
		}
		return err
	}
	if !acked {
		return fmt.Errorf("message was not acknowledged by broker")
	}

	logger.Log.Debug("Published ML export to RabbitMQ",
		zap.String("messageId", messageID),
		zap.String("videoId", doc.Metadata.VideoID),
		zap.String("routingKey", p.config.RoutingKey),
	)

	return nil
}

func (p *ExportPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, err)
		}
		p.channel = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, err)
		}
		p.conn = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing publisher: %w", errors.Join(errs...))
	}

	logger.Log.Info("RabbitMQ publisher closed")
	return nil
}

func (p *ExportPublisher) IsHealthy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.conn != nil && !p.conn.IsClosed() && p.channel != nil
}
