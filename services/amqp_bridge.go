package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"gobet-client/football"
	"gobet-client/logger"
)

// ReconnectConfig tunes the bridge's reconnect behaviour.
type ReconnectConfig struct {
	MaxRetries    int           // 0 = unlimited
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

func DefaultReconnectConfig() *ReconnectConfig {
	return &ReconnectConfig{
		MaxRetries:    0,
		InitialDelay:  1 * time.Second,
		MaxDelay:      60 * time.Second,
		BackoffFactor: 2.0,
	}
}

// FootballBridge republishes each applied football snapshot to an AMQP
// exchange, so non-HTTP consumers can follow the live list without speaking
// the upstream feed protocol.
type FootballBridge struct {
	url       string
	exchange  string
	reconnect *ReconnectConfig

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
}

// RoutingKey is the routing key of published snapshots.
const RoutingKey = "football.live"

func NewFootballBridge(url, exchange string) *FootballBridge {
	return &FootballBridge{
		url:       url,
		exchange:  exchange,
		reconnect: DefaultReconnectConfig(),
	}
}

// Start connects and keeps the connection alive with backoff reconnects.
func (b *FootballBridge) Start() error {
	if err := b.connect(); err != nil {
		return fmt.Errorf("initial connection failed: %w", err)
	}
	go b.monitorConnection()
	return nil
}

func (b *FootballBridge) connect() error {
	logger.Printf("[Bridge] Connecting to %s...", b.url)

	conn, err := amqp.Dial(b.url)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		b.exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	b.mu.Lock()
	b.conn = conn
	b.channel = channel
	b.mu.Unlock()

	logger.Printf("[Bridge] Connected, publishing to exchange %s", b.exchange)
	return nil
}

// monitorConnection waits for connection loss and reconnects with
// exponential backoff.
func (b *FootballBridge) monitorConnection() {
	for {
		b.mu.Lock()
		conn := b.conn
		closed := b.closed
		b.mu.Unlock()
		if closed || conn == nil {
			return
		}

		closeErr := <-conn.NotifyClose(make(chan *amqp.Error, 1))

		b.mu.Lock()
		closed = b.closed
		b.mu.Unlock()
		if closed {
			return
		}
		logger.Errorf("[Bridge] Connection lost: %v", closeErr)

		delay := b.reconnect.InitialDelay
		for attempt := 1; ; attempt++ {
			if b.reconnect.MaxRetries > 0 && attempt > b.reconnect.MaxRetries {
				logger.Errorf("[Bridge] Giving up after %d attempts", b.reconnect.MaxRetries)
				return
			}

			logger.Printf("[Bridge] Reconnecting in %v (attempt %d)...", delay, attempt)
			time.Sleep(delay)

			b.mu.Lock()
			closed = b.closed
			b.mu.Unlock()
			if closed {
				return
			}

			if err := b.connect(); err != nil {
				logger.Errorf("[Bridge] Reconnect failed: %v", err)
				delay = time.Duration(float64(delay) * b.reconnect.BackoffFactor)
				if delay > b.reconnect.MaxDelay {
					delay = b.reconnect.MaxDelay
				}
				continue
			}
			break
		}
	}
}

// PublishGames publishes the current live list.
func (b *FootballBridge) PublishGames(games []football.Game) error {
	b.mu.Lock()
	channel := b.channel
	b.mu.Unlock()

	if channel == nil {
		return fmt.Errorf("not connected")
	}

	body, err := json.Marshal(games)
	if err != nil {
		return fmt.Errorf("failed to marshal games: %w", err)
	}

	return channel.Publish(
		b.exchange,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
}

// Close shuts the bridge down; no reconnects follow.
func (b *FootballBridge) Close() error {
	b.mu.Lock()
	b.closed = true
	conn := b.conn
	b.conn = nil
	b.channel = nil
	b.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}
