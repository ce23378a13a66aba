package models

import "time"

// Действия, которые попадают в журнал.
const (
	ActionLogin  = "login"
	ActionLogout = "logout"
)

// Activity запись журнала действий.
type Activity struct {
	Action    string    `json:"action" bson:"action"`
	Role      string    `json:"role" bson:"role"`
	Username  string    `json:"username,omitempty" bson:"username,omitempty"`
	AccountID string    `json:"account_id" bson:"account_id"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}
