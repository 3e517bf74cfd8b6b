package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	TrackingRegistrationsCollection = "tracking_registrations"
	PushTargetsCollection           = "user_push_notification_target"
)

func createIndexes() {
	createTrackingIndexes()
	createPushTargetIndexes()
}

func createTrackingIndexes() {
	trackingCollection := GetCollection(TrackingRegistrationsCollection)
	_, err := trackingCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "trackingkey", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "userid", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expiresat", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func createPushTargetIndexes() {
	pushTargetsCollection := GetCollection(PushTargetsCollection)
	_, err := pushTargetsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userid", Value: 1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}
