package metrics

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisCollector reports backlog depths for the relay's Redis streams,
// including their delayed and dead-letter companions.
type RedisCollector struct {
	client  *redis.Client
	streams []string
}

// NewRedisCollector creates a collector watching the given streams
func NewRedisCollector(client *redis.Client, streams []string) *RedisCollector {
	return &RedisCollector{
		client:  client,
		streams: streams,
	}
}

// GetQueueDepths returns the number of pending messages per stream
func (c *RedisCollector) GetQueueDepths(ctx context.Context) (map[string]int64, error) {
	depths := make(map[string]int64)

	for _, stream := range c.streams {
		length, err := c.client.XLen(ctx, stream).Result()
		if err != nil && err != redis.Nil {
			// Keep reporting the streams that still answer
			continue
		}
		depths[stream] = length

		dlq := fmt.Sprintf("%s:dlq", stream)
		dlqLen, err := c.client.XLen(ctx, dlq).Result()
		if err != nil && err != redis.Nil {
			continue
		}
		depths[dlq] = dlqLen

		delayed := fmt.Sprintf("%s:delayed", stream)
		delayedLen, err := c.client.ZCard(ctx, delayed).Result()
		if err != nil && err != redis.Nil {
			continue
		}
		depths[delayed] = delayedLen
	}

	return depths, nil
}
