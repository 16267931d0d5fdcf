package notification

import "time"

type Type string

const (
	TypeScheduleMiss    Type = "attendance.schedule_miss"
	TypeDuplicateTimeIn Type = "attendance.duplicate_time_in"
	TypeAutoTimeOut     Type = "attendance.auto_time_out"
	TypeAbsenceSweep    Type = "attendance.absence_sweep"
)

type Notification struct {
	ID        string
	Type      Type
	Title     string
	Message   string
	Data      map[string]interface{}
	CreatedAt time.Time
}

type CreateNotificationRequest struct {
	Type    Type
	Title   string
	Message string
	Data    map[string]interface{}
}
