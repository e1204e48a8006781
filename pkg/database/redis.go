package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// InitRedis connects to redis and checks the connection.
func InitRedis(config utils.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", config.Addr, err)
	}

	return client, nil
}
