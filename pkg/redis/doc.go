// Package redis provides helpers for connecting to a Redis server.
//
// The package wraps the go-redis client and adds a Connect function that
// retries the connection using the supplied configuration, plus a
// health-check helper for liveness probes. Configuration is read from
// environment variables; see the field tags on Config.
//
// # Usage
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		panic(err)
//	}
//	defer client.Close()
package redis
