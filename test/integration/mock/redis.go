package mock

import (
	"context"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type Redis struct {
	Client *redis.Client
	server *miniredis.Miniredis
}

func NewRedis() *Redis {
	server, err := miniredis.Run()
	if err != nil {
		panic(err)
	}

	return &Redis{
		Client: redis.NewClient(&redis.Options{Addr: server.Addr()}),
		server: server,
	}
}

func (r *Redis) Clear() error {
	return r.Client.FlushAll(context.TODO()).Err()
}

func (r *Redis) Close() {
	_ = r.Client.Close()
	r.server.Close()
}
