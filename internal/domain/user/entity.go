package user

import "time"

type User struct {
	ID           string
	EmployeeCode string
	FullName     string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
