// README: Redis pub/sub notifier; connected dashboards subscribe for toasts.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const channel = "pipdash:toasts"

type toastPayload struct {
	Level  Level  `json:"level"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	SentAt int64  `json:"sent_at"`
}

// RedisNotifier publishes toasts on a pub/sub channel. Publish failures are
// logged and dropped; toasts are not durable.
type RedisNotifier struct {
	redis *redis.Client
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{redis: rdb}
}

func (n *RedisNotifier) Notify(level Level, title, body string) {
	raw, err := json.Marshal(toastPayload{
		Level:  level,
		Title:  title,
		Body:   body,
		SentAt: time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := n.redis.Publish(ctx, channel, raw).Err(); err != nil {
		log.Printf("notify: publish failed: %v", err)
	}
}
