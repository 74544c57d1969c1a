package chapter

import (
	"time"

	"github.com/irsalhamdi/course-market/core/muxdata"
)

type Chapter struct {
	ID          string    `json:"id" db:"chapter_id"`
	CourseID    string    `json:"courseId" db:"course_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"`
	VideoURL    *string   `json:"videoUrl" db:"video_url"`
	Position    int       `json:"position" db:"position"`
	PublishFlag bool      `json:"publishFlag" db:"publish_flag"`
	CreatedAt   time.Time `json:"createDate" db:"created_at"`
	UpdatedAt   time.Time `json:"updateDate" db:"updated_at"`
}

type WithMuxData struct {
	Chapter Chapter          `json:"chapter"`
	MuxData *muxdata.MuxData `json:"muxData"`
}

type ChapterNew struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

type TitleUp struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

type DescriptionUp struct {
	Description string `json:"description" validate:"required"`
}

type VideoUp struct {
	VideoURL string `json:"videoUrl" validate:"required,url"`
}

type Position struct {
	ID       string `json:"id" validate:"required,uuid4"`
	Position int    `json:"position" validate:"gte=1"`
}

type Reorder struct {
	List []Position `json:"list" validate:"required,min=1,unique=ID,dive"`
}

func filled(s *string) bool {
	return s != nil && *s != ""
}

// Publishable reports whether the chapter carries what learners need.
func (c Chapter) Publishable() bool {
	return c.Title != "" && filled(c.Description) && filled(c.VideoURL)
}
