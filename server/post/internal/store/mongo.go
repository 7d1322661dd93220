package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rb-369/Social-Media-Microservices/server/post/internal/models"
)

type MongoStore struct {
	posts *mongo.Collection
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

	posts := client.Database(database).Collection("posts")

	_, err = posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating index: %w", err)
	}

	return &MongoStore{posts: posts}, nil
}

func (s *MongoStore) Insert(ctx context.Context, post *models.Post) error {
	_, err := s.posts.InsertOne(ctx, post)
	return err
}

// FindByID returns (nil, nil) when no post exists.
func (s *MongoStore) FindByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns one page of posts, newest first, plus the total count.
func (s *MongoStore) List(ctx context.Context, page, pageSize int) ([]models.Post, int64, error) {
	total, err := s.posts.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	skip := int64((page - 1) * pageSize)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(pageSize))

	cursor, err := s.posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

// DeleteOwned removes the post only when id and owner both match, returning
// the deleted document so the caller can publish its media ids. Absence and
// ownership mismatch are indistinguishable: both return (nil, nil).
func (s *MongoStore) DeleteOwned(ctx context.Context, id, userID string) (*models.Post, error) {
	var post models.Post
	err := s.posts.FindOneAndDelete(ctx, bson.M{"_id": id, "userId": userID}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// IncrementLikes bumps the likes counter; reports whether the post existed.
func (s *MongoStore) IncrementLikes(ctx context.Context, id string) (bool, error) {
	result, err := s.posts.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"likes": 1},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}
