package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rb-369/Social-Media-Microservices/server/search/internal/models"
)

type MongoStore struct {
	records    *mongo.Collection
	tombstones *mongo.Collection
}

func NewMongoStore(uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("error pinging MongoDB: %w", err)
	}

	records := client.Database(database).Collection("search_records")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "postId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "content", Value: "text"}},
		},
	}
	if _, err := records.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("error creating indexes: %w", err)
	}

	tombstones := client.Database(database).Collection("search_tombstones")

	// Tombstones guard against a content.deleted event overtaking its
	// content.created on the bus. They only need to outlive the broker's
	// redelivery horizon, so they expire on their own.
	_, err = tombstones.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "deletedAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32((24 * time.Hour).Seconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating tombstone index: %w", err)
	}

	return &MongoStore{records: records, tombstones: tombstones}, nil
}

// Upsert replaces the record for the post id, creating it when absent.
// Redelivered content.created events land on the same document.
func (s *MongoStore) Upsert(ctx context.Context, record *models.SearchRecord) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.records.ReplaceOne(ctx, bson.M{"postId": record.PostID}, record, opts)
	return err
}

// DeleteByPostID removes the record if present and leaves a tombstone so a
// reordered content.created cannot resurrect it. Absence is not an error.
func (s *MongoStore) DeleteByPostID(ctx context.Context, postID string) error {
	opts := options.Update().SetUpsert(true)
	_, err := s.tombstones.UpdateOne(ctx,
		bson.M{"postId": postID},
		bson.M{"$set": bson.M{"postId": postID, "deletedAt": time.Now()}},
		opts,
	)
	if err != nil {
		return err
	}

	_, err = s.records.DeleteOne(ctx, bson.M{"postId": postID})
	return err
}

// IsDeleted reports whether a tombstone exists for the post id.
func (s *MongoStore) IsDeleted(ctx context.Context, postID string) (bool, error) {
	count, err := s.tombstones.CountDocuments(ctx, bson.M{"postId": postID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Search runs a ranked text search over record content.
func (s *MongoStore) Search(ctx context.Context, query string, page, pageSize int) ([]models.SearchRecord, error) {
	filter := bson.M{"$text": bson.M{"$search": query}}
	opts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := s.records.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := []models.SearchRecord{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}
