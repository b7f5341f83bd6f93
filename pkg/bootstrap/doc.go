// Package bootstrap assembles a service Environment from a loaded
// configuration.
//
// Logging and tracing are always initialized. The SQL pool, key-value store
// and broker client are connected only for features enabled in the
// configuration; the others are no-op values.
//
// Example usage:
//
//	func main() {
//	    ctx := context.Background()
//	    cfg, err := config.LoadProcess(config.FeaturePostgres | config.FeatureKafka)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    env, err := bootstrap.Init(ctx, "my-service", cfg)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer env.Close(ctx)
//
//	    err = env.Streaming.Publish(ctx, streaming.Message{Topic: "events", Payload: body})
//	}
package bootstrap
