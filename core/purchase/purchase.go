package purchase

import "time"

// Purchase grants a user access to a course.
type Purchase struct {
	ID        string    `json:"id" db:"purchase_id"`
	CourseID  string    `json:"courseId" db:"course_id"`
	UserID    string    `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createDate" db:"created_at"`
}
