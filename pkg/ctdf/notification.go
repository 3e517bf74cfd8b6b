package ctdf

import "time"

type Notification struct {
	TargetUser  string
	TargetToken string
	Type        NotificationType

	Title   string
	Message string
}

type NotificationType string

const (
	NotificationTypePush  NotificationType = "Push"
	NotificationTypeEmail NotificationType = "Email"
)

// UserPushNotificationTarget is the device token registered by a user.
type UserPushNotificationTarget struct {
	UserID                string
	PushNotificationToken string
	ModificationDateTime  time.Time
}
