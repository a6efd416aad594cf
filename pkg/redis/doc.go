// Package redis connects to Redis with go-redis and exposes a readiness
// probe. The session backend in pkg/session/redisstore is built on the
// client returned by Connect.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	backend := redisstore.New(client)
//
// Errors are sentinels joined with the driver error, so errors.Is works with
// both ErrRedisNotReady and the underlying cause.
package redis
