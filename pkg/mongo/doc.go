// Package mongo connects to MongoDB with the official v2 driver, retrying
// while the deployment comes up, and exposes a readiness probe.
//
//	var cfg mongo.Config
//	config.MustLoad(&cfg)
//
//	db, err := mongo.ConnectDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
//	backend, err := mongostore.New(ctx, db.Collection("sessions"))
//
// Configuration is read from MONGODB_* variables, see Config.
package mongo
