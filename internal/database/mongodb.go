package database

import (
	"context"
	"fmt"
	"time"

	"github.com/folio-cms/folio/internal/retry"
	"github.com/folio-cms/folio/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	clientOpts := options.Client().ApplyURI(uri).SetAppName("folio")
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// Dial retries ConnectMongo under p to ride out start-up races with the
// database container.
func Dial(ctx context.Context, uri string, timeout time.Duration, p retry.Policy) (*mongo.Client, error) {
	var client *mongo.Client
	err := retry.Do(ctx, p, func(ctx context.Context) error {
		c, err := ConnectMongo(ctx, uri, timeout)
		if err != nil {
			return err
		}
		client = c
		return nil
	}, func(attempt int, err error) {
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, p.Attempts, err)
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Ping is a readiness check for client.
func Ping(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}
}
