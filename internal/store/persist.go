package store

import (
	"context"
	"fmt"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpsertNew writes a freshly-valuated card, replacing any prior document
// with the same cardId. Used on the CardCreated path (spec.md §6), where
// the card does not yet exist or is being valuated for the first time.
func (m *Mongo) UpsertNew(ctx context.Context, card *cardmodel.Card) error {
	opts := options.Replace().SetUpsert(true)
	_, err := m.cards.ReplaceOne(ctx, bson.M{"cardId": card.CardID}, card, opts)
	if err != nil {
		return fmt.Errorf("upsert card %s: %w", card.CardID, err)
	}
	return nil
}

// ReplaceValuation updates the pricing/authenticity/OCR fields of an
// existing card, enforcing ownership and soft-delete conditions in the
// filter itself rather than with a separate read-then-write, mirroring
// the teacher's FindOneAndUpdate-with-conditions idiom for updates that
// must not silently succeed against the wrong document.
func (m *Mongo) ReplaceValuation(ctx context.Context, cardID, userID string, update bson.M) (*cardmodel.Card, error) {
	filter := bson.M{
		"cardId":    cardID,
		"userId":    userID,
		"deletedAt": nil,
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var card cardmodel.Card
	err := m.cards.FindOneAndUpdate(ctx, filter, bson.M{"$set": update}, opts).Decode(&card)
	if err == mongo.ErrNoDocuments {
		exists, existsErr := m.exists(ctx, cardID)
		if existsErr == nil && exists {
			return nil, cardmodel.NewError(cardmodel.KindForbidden, "card is owned by a different user or was deleted", err)
		}
		return nil, cardmodel.NewError(cardmodel.KindNotFound, "card not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("update card %s: %w", cardID, err)
	}
	return &card, nil
}

func (m *Mongo) exists(ctx context.Context, cardID string) (bool, error) {
	count, err := m.cards.CountDocuments(ctx, bson.M{"cardId": cardID})
	return count > 0, err
}
