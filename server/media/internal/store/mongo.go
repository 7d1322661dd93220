package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rb-369/Social-Media-Microservices/server/media/internal/models"
)

type MongoStore struct {
	media *mongo.Collection
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

	media := client.Database(database).Collection("media")

	_, err = media.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating index: %w", err)
	}

	return &MongoStore{media: media}, nil
}

func (s *MongoStore) Insert(ctx context.Context, m *models.Media) error {
	_, err := s.media.InsertOne(ctx, m)
	return err
}

func (s *MongoStore) FindByIDs(ctx context.Context, ids []string) ([]models.Media, error) {
	cursor, err := s.media.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := []models.Media{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteByID removes the metadata record; deleting an absent record is fine.
func (s *MongoStore) DeleteByID(ctx context.Context, id string) error {
	_, err := s.media.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *MongoStore) ListByUser(ctx context.Context, userID string) ([]models.Media, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.media.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := []models.Media{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}
