package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rb-369/Social-Media-Microservices/server/identity/internal/models"
)

type MongoStore struct {
	users  *mongo.Collection
	tokens *mongo.Collection
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

	db := client.Database(database)
	users := db.Collection("users")
	tokens := db.Collection("refresh_tokens")

	userIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := users.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return nil, fmt.Errorf("error creating user indexes: %w", err)
	}

	// Expired refresh tokens clean themselves up.
	_, err = tokens.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating token index: %w", err)
	}

	return &MongoStore{users: users, tokens: tokens}, nil
}

func (s *MongoStore) InsertUser(ctx context.Context, user *models.User) error {
	_, err := s.users.InsertOne(ctx, user)
	return err
}

// FindUserByEmailOrUsername returns (nil, nil) when no user matches.
func (s *MongoStore) FindUserByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	filter := bson.M{"$or": []bson.M{{"email": email}, {"username": username}}}
	var user models.User
	err := s.users.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) InsertRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	_, err := s.tokens.InsertOne(ctx, token)
	return err
}

// FindRefreshToken returns (nil, nil) for unknown tokens.
func (s *MongoStore) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var stored models.RefreshToken
	err := s.tokens.FindOne(ctx, bson.M{"token": token}).Decode(&stored)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *MongoStore) DeleteRefreshToken(ctx context.Context, token string) error {
	_, err := s.tokens.DeleteOne(ctx, bson.M{"token": token})
	return err
}
