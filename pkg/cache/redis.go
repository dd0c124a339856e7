package cache

import (
	"fmt"

	"clothing-store/pkg/utils"

	radix "github.com/mediocregopher/radix/v3"
)

// InitRedis opens a connection pool and checks it with PING.
func InitRedis(config utils.RedisConfig) (radix.Client, error) {
	size := config.PoolSize
	if size <= 0 {
		size = 10
	}

	pool, err := radix.NewPool("tcp", config.Addr, size)
	if err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", config.Addr, err)
	}

	var pong string
	if err := pool.Do(radix.Cmd(&pong, "PING")); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping redis %s: %w", config.Addr, err)
	}

	return pool, nil
}
