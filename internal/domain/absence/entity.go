package absence

import "time"

// Absence asserts that a user did not meet the minimum worked time for a
// scheduled shift date. One per (user_id, shift_date), enforced by the store.
type Absence struct {
	ID        string
	UserID    string
	ShiftDate time.Time
	CreatedAt time.Time
}
