package cmd

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/mailer"
	"github.com/vibast-solutions/ms-go-identity/app/service"
	"github.com/vibast-solutions/ms-go-identity/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// newRedisClient returns nil when Redis is not configured or unreachable;
// callers then run without rate limiting.
func newRedisClient(cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).WithField("addr", cfg.Addr).Warn("Redis unreachable, rate limiting disabled")
		_ = client.Close()
		return nil
	}
	return client
}

func newEmailDispatcher(cfg *config.Config) (service.EmailDispatcher, func()) {
	if cfg.Email.AMQPURL == "" {
		logrus.Warn("AMQP_URL not set, emails will only be logged")
		return mailer.NewLogDispatcher(mailer.NewRenderer(cfg.App.FrontendURL)), func() {}
	}

	dispatcher := mailer.NewAMQPDispatcher(cfg.Email.AMQPURL, cfg.Email.Queue)
	return dispatcher, func() { _ = dispatcher.Close() }
}
