// Package apperr holds the domain error kinds raised by the use-cases and
// their translation into HTTP responses.
package apperr

import (
	"errors"
	"net/http"

	"github.com/irsalhamdi/course-market/api/weberr"
)

var (
	ErrCourseNotFound             = errors.New("course not found")
	ErrChapterNotFound            = errors.New("chapter not found")
	ErrCategoryNotFound           = errors.New("category not found")
	ErrCourseRequiredFieldsEmpty  = errors.New("course required fields are empty")
	ErrChapterRequiredFieldsEmpty = errors.New("chapter required fields are empty")
	ErrCourseNotFree              = errors.New("course is not free")
	ErrCourseNotPaid              = errors.New("course is free")
	ErrCourseNotPublished         = errors.New("course is not published")
	ErrPurchaseAlreadyExists      = errors.New("purchase already exists")
)

type mapping struct {
	kind   error
	msg    string
	status int
}

var mappings = []mapping{
	{ErrCourseNotFound, "the course could not be found", http.StatusNotFound},
	{ErrChapterNotFound, "the chapter could not be found", http.StatusNotFound},
	{ErrCategoryNotFound, "the category could not be found", http.StatusNotFound},
	{ErrCourseNotPublished, "the course is not published", http.StatusForbidden},
	{ErrCourseRequiredFieldsEmpty, "title, description, image, category, price and a published chapter are required to publish the course", http.StatusBadRequest},
	{ErrChapterRequiredFieldsEmpty, "title, description and video are required to publish the chapter", http.StatusBadRequest},
	{ErrCourseNotFree, "the course is not free", http.StatusBadRequest},
	{ErrCourseNotPaid, "the course is free, use the free checkout", http.StatusBadRequest},
	{ErrPurchaseAlreadyExists, "the course has already been purchased", http.StatusBadRequest},
}

// Web attaches the response matching the error kind. Unknown errors are
// returned unchanged and end up as a 500.
func Web(err error) error {
	for _, m := range mappings {
		if errors.Is(err, m.kind) {
			return weberr.NewError(err, m.msg, m.status, weberr.WithField("kind", m.kind.Error()))
		}
	}
	return err
}
