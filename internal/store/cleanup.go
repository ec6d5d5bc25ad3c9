package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.mongodb.org/mongo-driver/bson"
)

// MongoCleanup implements orchestrator.Cleanup by hard-deleting the Card
// document and the uploaded image file, per spec.md §4.6's instruction
// that a Feature Extractor failure on a new-card submission must remove
// both the just-created record and its image object.
type MongoCleanup struct {
	mongo     *Mongo
	uploadDir string
}

// NewMongoCleanup wires the Mongo handle and the local upload directory
// the teacher's UPLOAD_DIR convention reads images from.
func NewMongoCleanup(mongo *Mongo, uploadDir string) *MongoCleanup {
	return &MongoCleanup{mongo: mongo, uploadDir: uploadDir}
}

// DeleteCard hard-deletes the card document, unlike the soft-delete a
// user-initiated removal would perform.
func (c *MongoCleanup) DeleteCard(ctx context.Context, cardID, userID string) error {
	_, err := c.mongo.cards.DeleteOne(ctx, bson.M{"cardId": cardID, "userId": userID})
	if err != nil {
		return fmt.Errorf("hard-delete card %s: %w", cardID, err)
	}
	return nil
}

// DeleteImage removes the uploaded image object from local storage.
func (c *MongoCleanup) DeleteImage(ctx context.Context, imageRef string) error {
	full := filepath.Join(c.uploadDir, filepath.Clean(imageRef))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete image %s: %w", imageRef, err)
	}
	return nil
}
