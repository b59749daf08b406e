package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskhub/internal/domain"
)

// PubSub fans audit entries out to downstream consumers over Redis channels.
type PubSub struct {
	client *redis.Client
}

// New connects to addr and verifies the connection before returning.
func New(ctx context.Context, addr, password string, db int) (*PubSub, error) {
	ps := &PubSub{client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})}
	if err := ps.Ping(ctx); err != nil {
		_ = ps.client.Close()
		return nil, fmt.Errorf("redis.New %s: %w", addr, err)
	}
	return ps, nil
}

func (ps *PubSub) Close() error {
	if err := ps.client.Close(); err != nil {
		return fmt.Errorf("redis.PubSub.Close: %w", err)
	}
	return nil
}

func (ps *PubSub) Ping(ctx context.Context) error {
	if err := ps.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.Ping: %w", err)
	}
	return nil
}

// Record publishes entry as JSON on its tenant's audit channel. It makes
// PubSub usable as an audit sink.
func (ps *PubSub) Record(ctx context.Context, entry *domain.AuditEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis.PubSub.Record: marshal: %w", err)
	}
	if err := ps.client.Publish(ctx, ChannelFor(entry), payload).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.Record: %w", err)
	}
	return nil
}

// Subscribe streams audit entries published on channel until ctx ends or the
// returned stop func is called. Undecodable payloads are logged and skipped.
func (ps *PubSub) Subscribe(ctx context.Context, channel string) (<-chan domain.AuditEntry, func(), error) {
	sub := ps.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.PubSub.Subscribe %s: %w", channel, err)
	}

	entries := make(chan domain.AuditEntry, 64)
	go pump(ctx, sub.Channel(), entries)

	return entries, func() { _ = sub.Close() }, nil
}

// pump decodes messages into entries and closes entries once msgs closes or
// ctx ends.
func pump(ctx context.Context, msgs <-chan *redis.Message, entries chan<- domain.AuditEntry) {
	defer close(entries)
	for {
		var msg *redis.Message
		select {
		case <-ctx.Done():
			return
		case m, ok := <-msgs:
			if !ok {
				return
			}
			msg = m
		}

		entry, err := Decode([]byte(msg.Payload))
		if err != nil {
			log.Warn().Err(err).Str("channel", msg.Channel).Msg("redis: skipping audit payload")
			continue
		}

		select {
		case entries <- entry:
		case <-ctx.Done():
			return
		}
	}
}

// Decode parses a published audit payload.
func Decode(payload []byte) (domain.AuditEntry, error) {
	var entry domain.AuditEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return domain.AuditEntry{}, fmt.Errorf("redis.Decode: %w", err)
	}
	return entry, nil
}

// AuditChannel returns the Redis channel carrying a tenant's audit entries.
func AuditChannel(tenantID uuid.UUID) string {
	return "audit:" + tenantID.String()
}

// PlatformChannel carries entries without a tenant, such as platform logins.
const PlatformChannel = "audit:platform"

// ChannelFor picks the channel an entry is published on.
func ChannelFor(entry *domain.AuditEntry) string {
	if entry.TenantID == nil || *entry.TenantID == uuid.Nil {
		return PlatformChannel
	}
	return AuditChannel(*entry.TenantID)
}
