// Package store persists Card documents to MongoDB, generalizing the
// connect/ping/collection pattern of the teacher's internal/storage
// package (InitMongoDB/GetMongoDB/CloseMongoDB plus a typed collection
// accessor) to the card-pricing domain.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo wraps a connected client/database pair and the cards collection.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	cards  *mongo.Collection
	log    zerolog.Logger
}

// Connect dials uri, pings it, and returns a ready Mongo.
func Connect(ctx context.Context, uri, dbName string, log zerolog.Logger) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	log.Info().Str("database", dbName).Msg("connected to MongoDB")

	return &Mongo{
		client: client,
		db:     db,
		cards:  db.Collection("cards"),
		log:    log,
	}, nil
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	closeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := m.client.Disconnect(closeCtx); err != nil {
		return err
	}
	m.log.Info().Msg("MongoDB connection closed")
	return nil
}

// FindByID looks up a non-deleted card by its identifier.
func (m *Mongo) FindByID(ctx context.Context, cardID string) (*cardmodel.Card, error) {
	var card cardmodel.Card
	err := m.cards.FindOne(ctx, bson.M{"cardId": cardID, "deletedAt": nil}).Decode(&card)
	if err == mongo.ErrNoDocuments {
		return nil, cardmodel.NewError(cardmodel.KindNotFound, "card not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("find card %s: %w", cardID, err)
	}
	return &card, nil
}
