package notify

import (
	"context"
	"encoding/base64"
	"errors"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog/log"
	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/database"
	"github.com/travigo/treni/pkg/util"
	"go.mongodb.org/mongo-driver/bson"
	"google.golang.org/api/option"
)

type PushManager struct {
	FirebaseApp *firebase.App
	messaging   *messaging.Client
}

func (m *PushManager) Setup() error {
	env := util.GetEnvironmentVariables()

	decodedKey, err := base64.StdEncoding.DecodeString(env["TRENI_FIREBASE_SERVICE_ACCOUNT"])
	if err != nil {
		return err
	}

	opts := []option.ClientOption{option.WithCredentialsJSON(decodedKey)}

	app, err := firebase.NewApp(context.Background(), nil, opts...)
	if err != nil {
		return err
	}

	m.FirebaseApp = app

	m.messaging, err = app.Messaging(context.Background())

	return err
}

// SendPush delivers a notification to its token, or to the token the
// target user registered.
func (m *PushManager) SendPush(ctx context.Context, notification ctdf.Notification) error {
	token := notification.TargetToken

	if token == "" {
		var userPushNotificationTarget *ctdf.UserPushNotificationTarget

		database.GetCollection(database.PushTargetsCollection).FindOne(ctx, bson.M{
			"userid": notification.TargetUser,
		}).Decode(&userPushNotificationTarget)

		if userPushNotificationTarget == nil {
			return errors.New("failed to find user token")
		}

		token = userPushNotificationTarget.PushNotificationToken
	}

	_, err := m.messaging.Send(ctx, &messaging.Message{
		Notification: &messaging.Notification{
			Title: notification.Title,
			Body:  notification.Message,
		},
		Token: token,
	})
	if err != nil {
		return err
	}

	log.Info().Str("target", notification.TargetUser).Msg("Sent Push Notification")

	return nil
}
