package course

import (
	"time"

	"github.com/irsalhamdi/course-market/core/category"
	"github.com/irsalhamdi/course-market/core/chapter"
	"github.com/irsalhamdi/course-market/core/muxdata"
)

type Course struct {
	ID          string    `json:"id" db:"course_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"`
	ImageURL    *string   `json:"imageUrl" db:"image_url"`
	Price       *int      `json:"price" db:"price"`
	CategoryID  *string   `json:"categoryId" db:"category_id"`
	SourceURL   *string   `json:"sourceUrl" db:"source_url"`
	PublishFlag bool      `json:"publishFlag" db:"publish_flag"`
	CreatedAt   time.Time `json:"createDate" db:"created_at"`
	UpdatedAt   time.Time `json:"updateDate" db:"updated_at"`
}

func filled(s *string) bool {
	return s != nil && *s != ""
}

// Publishable reports whether the course may be exposed to learners given the
// number of its published chapters.
func (c Course) Publishable(publishedChapters int) bool {
	return publishedChapters > 0 &&
		c.Title != "" &&
		filled(c.Description) &&
		filled(c.ImageURL) &&
		filled(c.CategoryID) &&
		c.Price != nil
}

// Free is false for a course without a price.
func (c Course) Free() bool {
	return c.Price != nil && *c.Price == 0
}

// AdminCourse is a row of the administration listing.
type AdminCourse struct {
	Course          Course             `json:"course"`
	Category        *category.Category `json:"category"`
	ChapterLength   int                `json:"chapterLength"`
	PurchasedNumber int                `json:"purchasedNumber"`
}

// PublishCourse is what a learner sees in the catalog.
type PublishCourse struct {
	Course    Course             `json:"course"`
	Category  *category.Category `json:"category"`
	Chapters  []chapter.Chapter  `json:"chapters"`
	Purchased bool               `json:"purchased"`
}

type ChapterWithMuxData struct {
	chapter.Chapter
	MuxData *muxdata.MuxData `json:"muxData"`
}

// PublishCourseWithMuxData is the detail page of a published course.
type PublishCourseWithMuxData struct {
	Course    Course               `json:"course"`
	Category  *category.Category   `json:"category"`
	Chapters  []ChapterWithMuxData `json:"chapters"`
	Purchased bool                 `json:"purchased"`
}

type PurchaseCourse struct {
	Course   Course             `json:"course"`
	Category *category.Category `json:"category"`
	Chapters []chapter.Chapter  `json:"chapters"`
}

type Filter struct {
	Title      string
	CategoryID string
}

type DeleteResult struct {
	DeletedAssets int `json:"deletedAssets"`
	PendingAssets int `json:"pendingAssets"`
}

type CourseNew struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

type TitleUp struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

type DescriptionUp struct {
	Description string `json:"description" validate:"required"`
}

type ImageUp struct {
	ImageURL string `json:"imageUrl" validate:"required,url"`
}

type PriceUp struct {
	Price *int `json:"price" validate:"required,gte=0,lte=1000000"`
}

type CategoryUp struct {
	CategoryID string `json:"categoryId" validate:"required,uuid4"`
}

type SourceURLUp struct {
	SourceURL string `json:"sourceUrl" validate:"required,url"`
}
