package tracking

import (
	"context"
	"errors"

	"github.com/travigo/treni/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRegistry keeps registrations in the tracking_registrations
// collection. Expired registrations are removed by a TTL index.
type MongoRegistry struct {
	collection *mongo.Collection
}

func NewMongoRegistry() *MongoRegistry {
	return &MongoRegistry{
		collection: database.GetCollection(database.TrackingRegistrationsCollection),
	}
}

func (m *MongoRegistry) All(ctx context.Context) ([]*Registration, error) {
	return m.find(ctx, bson.M{})
}

func (m *MongoRegistry) ForUser(ctx context.Context, userID string) ([]*Registration, error) {
	return m.find(ctx, bson.M{"userid": userID})
}

func (m *MongoRegistry) find(ctx context.Context, filter bson.M) ([]*Registration, error) {
	cursor, err := m.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, err
	}

	var registrations []*Registration
	if err := cursor.All(ctx, &registrations); err != nil {
		return nil, err
	}

	return registrations, nil
}

func (m *MongoRegistry) Get(ctx context.Context, id string) (*Registration, error) {
	var registration *Registration

	err := m.collection.FindOne(ctx, bson.M{"id": id}).Decode(&registration)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRegistrationNotFound
	} else if err != nil {
		return nil, err
	}

	return registration, nil
}

func (m *MongoRegistry) Put(ctx context.Context, registration *Registration) error {
	_, err := m.collection.ReplaceOne(ctx, bson.M{"id": registration.ID}, registration, options.Replace().SetUpsert(true))

	return err
}

func (m *MongoRegistry) Delete(ctx context.Context, id string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return ErrRegistrationNotFound
	}

	return nil
}
