package client

import (
	"context"
	"time"

	"clubmanager/pkg/logger"
)

// Client bundles the external connections shared across the service.
type Client struct {
	Mongo *MongoClient
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, connTimeout time.Duration) {
	c.Mongo = NewMongoClient(log, mongoURI, connTimeout)
}

func (c *Client) Close(log *logger.Logger) {
	if c.Mongo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Mongo.Client.Disconnect(ctx); err != nil {
		log.Warn("Failed to disconnect from MongoDB", "error", err)
		return
	}
	log.Info("MongoDB connection closed")
}
