// Package feed signals "something changed in this scope" between service
// instances over redis pub/sub. Messages carry no payload beyond the scope
// key; receivers reload what they need.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"rehab-booking/pkg/sl"
)

type RedisFeed struct {
	client *redis.Client
	prefix string
	log    *slog.Logger
}

func NewRedisFeed(client *redis.Client, prefix string, log *slog.Logger) *RedisFeed {
	return &RedisFeed{client: client, prefix: prefix, log: log}
}

func TrainerScope(trainerID string) string {
	return "trainer:" + trainerID
}

func ClientScope(clientID string) string {
	return "client:" + clientID
}

func (f *RedisFeed) channel(scope string) string {
	return f.prefix + ":" + scope
}

func (f *RedisFeed) scopeOf(channel string) string {
	return strings.TrimPrefix(channel, f.prefix+":")
}

// Publish announces a change in each of the given scopes.
func (f *RedisFeed) Publish(ctx context.Context, scopes ...string) error {
	const op = "feed.RedisFeed.Publish"

	for _, scope := range scopes {
		if err := f.client.Publish(ctx, f.channel(scope), scope).Err(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

// Watch registers interest in every scope matching pattern (e.g. "trainer:*")
// and calls refresh with the changed scope until ctx is done.
func (f *RedisFeed) Watch(ctx context.Context, pattern string, refresh func(scope string)) error {
	const op = "feed.RedisFeed.Watch"

	pubsub := f.client.PSubscribe(ctx, f.channel(pattern))
	defer func() {
		if err := pubsub.Close(); err != nil {
			f.log.Warn("Failed to close subscription", slog.String("op", op), sl.Err(err))
		}
	}()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("%s: subscribe: %w", op, err)
	}

	f.log.Info("Watching change feed", slog.String("pattern", pattern))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			refresh(f.scopeOf(msg.Channel))
		}
	}
}
