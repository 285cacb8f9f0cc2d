package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/collabnet/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultSuggestionTTL is how long computed suggestions are served from cache.
const DefaultSuggestionTTL = 5 * time.Minute

const (
	suggestionKeyPrefix = "collabnet:suggestions:"
	chatChannelPrefix   = "collabnet:chat:"
)

// ConnectRedis opens a client and pings it.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Cache keeps derived, per-user data and fans out chat messages.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultSuggestionTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// cachedSuggestion keeps the picture key, which the API encoding of a user omits.
type cachedSuggestion struct {
	models.Suggestion
	PictureKey string `json:"picture_key"`
}

func suggestionKey(user uuid.UUID) string {
	return suggestionKeyPrefix + user.String()
}

// GetSuggestions returns the cached suggestions for user, if any.
func (c *Cache) GetSuggestions(ctx context.Context, user uuid.UUID) ([]models.Suggestion, bool, error) {
	data, err := c.rdb.Get(ctx, suggestionKey(user)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stored []cachedSuggestion
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached suggestions: %w", err)
	}
	out := make([]models.Suggestion, len(stored))
	for i, cs := range stored {
		out[i] = cs.Suggestion
		out[i].User.PictureKey = cs.PictureKey
	}
	return out, true, nil
}

func (c *Cache) SetSuggestions(ctx context.Context, user uuid.UUID, s []models.Suggestion) error {
	stored := make([]cachedSuggestion, len(s))
	for i, sg := range s {
		stored[i] = cachedSuggestion{Suggestion: sg, PictureKey: sg.User.PictureKey}
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestions: %w", err)
	}
	return c.rdb.Set(ctx, suggestionKey(user), data, c.ttl).Err()
}

// InvalidateSuggestions drops cached suggestions for users.
func (c *Cache) InvalidateSuggestions(ctx context.Context, users ...uuid.UUID) error {
	if len(users) == 0 {
		return nil
	}
	keys := make([]string, len(users))
	for i, u := range users {
		keys[i] = suggestionKey(u)
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func chatChannel(user uuid.UUID) string {
	return chatChannelPrefix + user.String()
}

// PublishMessage pushes msg to whoever is listening for its receiver.
func (c *Cache) PublishMessage(ctx context.Context, msg models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := c.rdb.Publish(ctx, chatChannel(msg.ReceiverID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish to '%s': %w", chatChannel(msg.ReceiverID), err)
	}
	return nil
}

// SubscribeMessages streams messages addressed to user until ctx is done.
// The returned channel is closed when the subscription ends.
func (c *Cache) SubscribeMessages(ctx context.Context, user uuid.UUID) (<-chan models.Message, error) {
	sub := c.rdb.Subscribe(ctx, chatChannel(user))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan models.Message, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var msg models.Message
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
