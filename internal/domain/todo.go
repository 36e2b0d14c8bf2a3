package domain

import "time"

// Todo represents a single task owned by a user.
//
// CompletedAt is epoch milliseconds and is non-nil exactly when Completed is
// true.
type Todo struct {
	ID          string
	Text        string
	Completed   bool
	CompletedAt *int64
	CreatorID   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
