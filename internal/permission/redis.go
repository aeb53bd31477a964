package permission

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const publishTimeout = 2 * time.Second

type invalidationMessage struct {
	InstanceID string `json:"instance_id"`
	Role       string `json:"role"`
}

// NewRedisClient parses url and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// RedisBroadcaster fans local cache invalidations out to other instances over a
// redis channel and applies theirs locally. Local invalidation never waits on redis,
// so peers converge within the pub/sub delivery latency.
type RedisBroadcaster struct {
	client     *redis.Client
	channel    string
	instanceID string
	cache      *Cache
	logger     *slog.Logger

	pubsub *redis.PubSub

	// mu orders wg.Add against Close so no publish starts once Close is waiting
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewRedisBroadcaster(client *redis.Client, channel string, cache *Cache, logger *slog.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
		cache:      cache,
		logger:     logger.With("component", "permission_broadcast"),
	}
}

func (b *RedisBroadcaster) InstanceID() string {
	return b.instanceID
}

// Start subscribes to the channel and hooks the cache. It returns once the
// subscription is confirmed.
func (b *RedisBroadcaster) Start(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.pubsub = pubsub

	b.wg.Add(1)
	go b.listen(pubsub.Channel())

	b.cache.setInvalidationHook(b.publishAsync)
	b.logger.Info("permission invalidation broadcast started", "channel", b.channel, "instance_id", b.instanceID)
	return nil
}

func (b *RedisBroadcaster) listen(messages <-chan *redis.Message) {
	defer b.wg.Done()
	for msg := range messages {
		var m invalidationMessage
		if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
			b.logger.Warn("dropping malformed invalidation message", "error", err)
			continue
		}
		if m.InstanceID == b.instanceID || m.Role == "" {
			continue
		}
		b.cache.invalidateRemote(m.Role)
		b.logger.Debug("applied remote invalidation", "role", m.Role, "from", m.InstanceID)
	}
}

func (b *RedisBroadcaster) publishAsync(roleName string) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.logger.Debug("broadcaster closed, invalidation not announced", "role", roleName)
		return
	}
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := b.Publish(ctx, roleName); err != nil {
			b.logger.Error("failed to broadcast invalidation", "role", roleName, "error", err)
		}
	}()
}

// Publish announces that roleName changed.
func (b *RedisBroadcaster) Publish(ctx context.Context, roleName string) error {
	payload, err := json.Marshal(invalidationMessage{InstanceID: b.instanceID, Role: roleName})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Close unhooks the cache, ends the subscription and waits for in-flight publishes.
// Later calls are no-ops.
func (b *RedisBroadcaster) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cache.setInvalidationHook(nil)
	var err error
	if b.pubsub != nil {
		err = b.pubsub.Close()
	}
	b.wg.Wait()
	return err
}
