//go:build integration
// +build integration

package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/astro-analytics/video-tagging-go/internal/config"
	"github.com/astro-analytics/video-tagging-go/internal/export"
	"github.com/astro-analytics/video-tagging-go/internal/models"
	"github.com/astro-analytics/video-tagging-go/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	loggerInitOnce sync.Once
	loggerInitErr  error
)

func initTestLogger() error {
	loggerInitOnce.Do(func() {
		loggerInitErr = logger.Init("error", "")
	})
	return loggerInitErr
}

func setupTestRabbitMQ(t *testing.T) *config.RabbitMQConfig {
	t.Helper()
	if err := initTestLogger(); err != nil {
		t.Fatalf("Failed to initialize test logger: %v", err)
	}

	ctx := context.Background()

	container, err := rabbitmq.Run(ctx,
		"rabbitmq:3.13-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start rabbitmq container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)

	return &config.RabbitMQConfig{
		Enabled:    true,
		Host:       host,
		Port:       port.Int(),
		User:       "guest",
		Password:   "guest",
		Exchange:   "test.tagging",
		Queue:      "test.ml-exports",
		RoutingKey: "export.ml.created",
	}
}

func testDocument(t *testing.T) *export.MLDocument {
	t.Helper()
	events := []models.Event{{ID: 1, Timestamp: 10, EventType: "spike", Player: "A", Outcome: "Success"}}
	doc, err := export.BuildMLDocument(testKey, events, nil, time.Now())
	require.NoError(t, err)
	return doc
}

func TestExportPublisher_PublishMLDocument(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg := setupTestRabbitMQ(t)

	p, err := NewExportPublisher(cfg)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.PublishMLDocument(context.Background(), testDocument(t)))

	conn, err := amqp.Dial(amqpURL(cfg))
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	var msg amqp.Delivery
	require.Eventually(t, func() bool {
		var ok bool
		msg, ok, err = ch.Get(cfg.Queue, true)
		return err == nil && ok
	}, 5*time.Second, 100*time.Millisecond)

	assert.Equal(t, export.ContentTypeJSON, msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.NotEmpty(t, msg.MessageId)
	assert.Equal(t, testKey, msg.Headers["videoId"])

	var got export.MLDocument
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, testKey, got.Metadata.VideoID)
	assert.Equal(t, 1, got.Metadata.TotalEvents)
}

func TestExportPublisher_IsHealthy(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg := setupTestRabbitMQ(t)

	p, err := NewExportPublisher(cfg)
	require.NoError(t, err)

	if !p.IsHealthy() {
		t.Error("IsHealthy() = false, want true")
	}

	require.NoError(t, p.Close())
	if p.IsHealthy() {
		t.Error("IsHealthy() after Close() = true, want false")
	}
	assert.Error(t, p.PublishMLDocument(context.Background(), testDocument(t)))
}

func TestExportPublisher_ConnectionRefused(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	_, err := NewExportPublisher(&config.RabbitMQConfig{
		Host: "127.0.0.1", Port: 1, User: "guest", Password: "guest", Exchange: "x",
	})
	assert.Error(t, err)
}
