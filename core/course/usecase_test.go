package course_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/course-market/core/apperr"
	"github.com/irsalhamdi/course-market/core/category"
	"github.com/irsalhamdi/course-market/core/chapter"
	"github.com/irsalhamdi/course-market/core/course"
	"github.com/irsalhamdi/course-market/core/muxdata"
	"github.com/irsalhamdi/course-market/core/muxdata/muxtest"
	"github.com/irsalhamdi/course-market/core/purchase"
	"github.com/irsalhamdi/course-market/database/dbtest"
	"github.com/irsalhamdi/course-market/validate"
	"github.com/jmoiron/sqlx"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

type env struct {
	db         *sqlx.DB
	assets     *muxtest.Assets
	cleaner    *muxdata.Cleaner
	courses    *course.UseCase
	chapters   *chapter.UseCase
	categories *category.UseCase
}

func newEnv(t *testing.T) env {
	db := dbtest.New(t)
	log, _ := logtest.NewNullLogger()

	assets := muxtest.New()
	cleaner := muxdata.NewCleaner(db, assets, log)

	return env{
		db:         db,
		assets:     assets,
		cleaner:    cleaner,
		courses:    course.NewUseCase(db, cleaner, log),
		chapters:   chapter.NewUseCase(db, assets, cleaner, log),
		categories: category.NewUseCase(db),
	}
}

func must[T any](v T, err error) func(t *testing.T) T {
	return func(t *testing.T) T {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return v
	}
}

// publishable builds a course that satisfies every publication rule, with one
// published chapter holding a video.
func (e env) publishable(t *testing.T, title string, price int) course.Course {
	t.Helper()
	ctx := context.Background()

	cat := must(e.categories.Create(ctx, "Programming"))(t)
	c := must(e.courses.Create(ctx, title))(t)
	must(e.courses.UpdateDescription(ctx, c.ID, "Learn by building"))(t)
	must(e.courses.UpdateImage(ctx, c.ID, "https://files.example.com/cover.png"))(t)
	must(e.courses.UpdatePrice(ctx, c.ID, price))(t)
	must(e.courses.UpdateCategory(ctx, c.ID, cat.ID))(t)

	ch := must(e.chapters.Create(ctx, c.ID, "Welcome"))(t)
	must(e.chapters.UpdateDescription(ctx, c.ID, ch.ID, "What we will build"))(t)
	must(e.chapters.UpdateVideo(ctx, c.ID, ch.ID, "https://videos.example.com/welcome.mp4"))(t)
	must(e.chapters.Publish(ctx, c.ID, ch.ID))(t)

	return must(e.courses.Publish(ctx, c.ID))(t)
}

func TestCourses(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	t.Run("publish rejects incomplete course", func(t *testing.T) {
		c := must(e.courses.Create(ctx, "Intro"))(t)

		_, err := e.courses.Publish(ctx, c.ID)
		if !errors.Is(err, apperr.ErrCourseRequiredFieldsEmpty) {
			t.Fatalf("expected ErrCourseRequiredFieldsEmpty, got %v", err)
		}

		got := must(e.courses.Get(ctx, c.ID))(t)
		if got.PublishFlag {
			t.Fatal("course must stay unpublished")
		}
	})

	t.Run("publish requires a published chapter", func(t *testing.T) {
		cat := must(e.categories.Create(ctx, "Design"))(t)
		c := must(e.courses.Create(ctx, "Colors"))(t)
		must(e.courses.UpdateDescription(ctx, c.ID, "Palettes"))(t)
		must(e.courses.UpdateImage(ctx, c.ID, "https://files.example.com/colors.png"))(t)
		must(e.courses.UpdatePrice(ctx, c.ID, 0))(t)
		must(e.courses.UpdateCategory(ctx, c.ID, cat.ID))(t)
		must(e.chapters.Create(ctx, c.ID, "Draft chapter"))(t)

		if _, err := e.courses.Publish(ctx, c.ID); !errors.Is(err, apperr.ErrCourseRequiredFieldsEmpty) {
			t.Fatalf("expected ErrCourseRequiredFieldsEmpty, got %v", err)
		}
	})

	t.Run("publish complete course", func(t *testing.T) {
		c := e.publishable(t, "Go from scratch", 0)
		if !c.PublishFlag {
			t.Fatal("expected the course to be published")
		}

		pc := must(e.courses.GetPublished(ctx, c.ID, "user_learner"))(t)
		if pc.Purchased {
			t.Fatal("course must not be purchased yet")
		}
		if len(pc.Chapters) != 1 || pc.Chapters[0].MuxData == nil {
			t.Fatalf("expected one chapter with its video, got %+v", pc.Chapters)
		}
		if pc.Chapters[0].MuxData.PlaybackID == "" {
			t.Fatal("expected a playback id")
		}
		if pc.Category == nil || pc.Category.Name != "Programming" {
			t.Fatalf("expected the category to be joined, got %+v", pc.Category)
		}

		list := must(e.courses.ListPublished(ctx, "user_learner", course.Filter{Title: "from SCRATCH"}))(t)
		if len(list) != 1 || list[0].Course.ID != c.ID {
			t.Fatalf("expected the course to be listed, got %+v", list)
		}
		if len(list[0].Chapters) != 1 {
			t.Fatalf("expected the published chapter in the listing, got %+v", list[0].Chapters)
		}
	})

	t.Run("title filter escapes wildcards", func(t *testing.T) {
		e.publishable(t, "Rust basics", 0)

		list := must(e.courses.ListPublished(ctx, "user_learner", course.Filter{Title: "%"}))(t)
		if len(list) != 0 {
			t.Fatalf("expected no match for a literal percent sign, got %d", len(list))
		}
	})

	t.Run("missing and unpublished are distinct", func(t *testing.T) {
		_, err := e.courses.GetPublished(ctx, validate.GenerateID(), "user_learner")
		if !errors.Is(err, apperr.ErrCourseNotFound) {
			t.Fatalf("expected ErrCourseNotFound, got %v", err)
		}

		c := must(e.courses.Create(ctx, "Hidden"))(t)
		_, err = e.courses.GetPublished(ctx, c.ID, "user_learner")
		if !errors.Is(err, apperr.ErrCourseNotPublished) {
			t.Fatalf("expected ErrCourseNotPublished, got %v", err)
		}
	})

	t.Run("checkout free rejects a priced course", func(t *testing.T) {
		c := e.publishable(t, "Paid course", 1200)

		_, err := e.courses.CheckoutFree(ctx, c.ID, "user_learner")
		if !errors.Is(err, apperr.ErrCourseNotFree) {
			t.Fatalf("expected ErrCourseNotFree, got %v", err)
		}

		n := must(purchase.Count(ctx, e.db, c.ID, "user_learner"))(t)
		if n != 0 {
			t.Fatalf("expected no purchase, got %d", n)
		}
	})

	t.Run("checkout free without price", func(t *testing.T) {
		c := must(e.courses.Create(ctx, "Unpriced"))(t)

		if _, err := e.courses.CheckoutFree(ctx, c.ID, "user_learner"); !errors.Is(err, apperr.ErrCourseNotFree) {
			t.Fatalf("expected ErrCourseNotFree, got %v", err)
		}
	})

	t.Run("concurrent free checkouts store one purchase", func(t *testing.T) {
		c := e.publishable(t, "Free course", 0)

		const n = 4
		errs := make([]error, n)

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = e.courses.CheckoutFree(ctx, c.ID, "user_racer")
			}(i)
		}
		wg.Wait()

		ok := 0
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case !errors.Is(err, apperr.ErrPurchaseAlreadyExists):
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if ok != 1 {
			t.Fatalf("expected exactly one successful checkout, got %d", ok)
		}

		count := must(purchase.Count(ctx, e.db, c.ID, "user_racer"))(t)
		if count != 1 {
			t.Fatalf("expected one purchase, got %d", count)
		}

		pc := must(e.courses.GetPublished(ctx, c.ID, "user_racer"))(t)
		if !pc.Purchased {
			t.Fatal("expected the course to be marked as purchased")
		}

		bought := must(e.courses.ListPurchased(ctx, "user_racer"))(t)
		if len(bought) != 1 || bought[0].Course.ID != c.ID {
			t.Fatalf("expected the purchased course, got %+v", bought)
		}
	})

	t.Run("paid checkout", func(t *testing.T) {
		free := e.publishable(t, "Free again", 0)
		if _, err := e.courses.PrepareCheckout(ctx, free.ID, "user_payer"); !errors.Is(err, apperr.ErrCourseNotPaid) {
			t.Fatalf("expected ErrCourseNotPaid, got %v", err)
		}

		c := e.publishable(t, "Premium", 4800)
		got := must(e.courses.PrepareCheckout(ctx, c.ID, "user_payer"))(t)
		if got.ID != c.ID {
			t.Fatalf("expected course %s, got %s", c.ID, got.ID)
		}

		for i := 0; i < 2; i++ {
			if err := e.courses.CompleteCheckout(ctx, c.ID, "user_payer"); err != nil {
				t.Fatalf("completing checkout #%d: %v", i, err)
			}
		}

		count := must(purchase.Count(ctx, e.db, c.ID, "user_payer"))(t)
		if count != 1 {
			t.Fatalf("expected one purchase, got %d", count)
		}

		if _, err := e.courses.PrepareCheckout(ctx, c.ID, "user_payer"); !errors.Is(err, apperr.ErrPurchaseAlreadyExists) {
			t.Fatalf("expected ErrPurchaseAlreadyExists, got %v", err)
		}
	})

	t.Run("delete removes every asset", func(t *testing.T) {
		c := must(e.courses.Create(ctx, "Video heavy"))(t)

		var assets []string
		for _, title := range []string{"One", "Two", "Three"} {
			ch := must(e.chapters.Create(ctx, c.ID, title))(t)
			wm := must(e.chapters.UpdateVideo(ctx, c.ID, ch.ID, "https://videos.example.com/"+title+".mp4"))(t)
			assets = append(assets, wm.MuxData.AssetID)
		}

		before := len(e.assets.Deleted())

		res := must(e.courses.Delete(ctx, c.ID))(t)
		if diff := cmp.Diff(course.DeleteResult{DeletedAssets: 3}, res); diff != "" {
			t.Fatalf("wrong result (-want +got):\n%s", diff)
		}

		deleted := e.assets.Deleted()[before:]
		sort.Strings(deleted)
		sort.Strings(assets)
		if diff := cmp.Diff(assets, deleted); diff != "" {
			t.Fatalf("wrong remote deletions (-want +got):\n%s", diff)
		}

		if _, err := e.courses.Get(ctx, c.ID); !errors.Is(err, apperr.ErrCourseNotFound) {
			t.Fatalf("expected ErrCourseNotFound, got %v", err)
		}
		if data := must(muxdata.ListByCourse(ctx, e.db, c.ID))(t); len(data) != 0 {
			t.Fatalf("expected mux data to be gone, got %d", len(data))
		}
	})

	t.Run("delete keeps failed deletions pending", func(t *testing.T) {
		c := must(e.courses.Create(ctx, "Flaky platform"))(t)
		ch := must(e.chapters.Create(ctx, c.ID, "Only"))(t)
		wm := must(e.chapters.UpdateVideo(ctx, c.ID, ch.ID, "https://videos.example.com/only.mp4"))(t)

		e.assets.Fail(wm.MuxData.AssetID)
		defer e.assets.Recover()

		res := must(e.courses.Delete(ctx, c.ID))(t)
		if diff := cmp.Diff(course.DeleteResult{PendingAssets: 1}, res); diff != "" {
			t.Fatalf("wrong result (-want +got):\n%s", diff)
		}

		if _, err := e.courses.Get(ctx, c.ID); !errors.Is(err, apperr.ErrCourseNotFound) {
			t.Fatalf("expected the course to be deleted, got %v", err)
		}

		pds := must(muxdata.ListPending(ctx, e.db))(t)
		found := false
		for _, pd := range pds {
			found = found || pd.AssetID == wm.MuxData.AssetID
		}
		if !found {
			t.Fatal("expected the failed deletion to be pending")
		}
	})

	t.Run("delete marks assets before the remote calls", func(t *testing.T) {
		c := must(e.courses.Create(ctx, "Marked"))(t)
		ch := must(e.chapters.Create(ctx, c.ID, "Only"))(t)
		wm := must(e.chapters.UpdateVideo(ctx, c.ID, ch.ID, "https://videos.example.com/marked.mp4"))(t)

		type observed struct {
			Pending      bool
			CourseExists bool
		}
		var seen []observed

		e.assets.OnDelete(func(assetID string) {
			pds, err := muxdata.ListPending(ctx, e.db)
			if err != nil {
				t.Errorf("listing pending: %v", err)
				return
			}

			o := observed{}
			for _, pd := range pds {
				o.Pending = o.Pending || pd.AssetID == assetID
			}

			_, err = e.courses.Get(ctx, c.ID)
			o.CourseExists = !errors.Is(err, apperr.ErrCourseNotFound)
			seen = append(seen, o)
		})
		defer e.assets.OnDelete(nil)

		must(e.courses.Delete(ctx, c.ID))(t)

		if diff := cmp.Diff([]observed{{Pending: true}}, seen); diff != "" {
			t.Fatalf("wrong state during the remote call (-want +got):\n%s", diff)
		}

		for _, pd := range must(muxdata.ListPending(ctx, e.db))(t) {
			if pd.AssetID == wm.MuxData.AssetID {
				t.Fatal("a successful deletion must clear its marker")
			}
		}
	})

	t.Run("video swap racing delete leaves no asset behind", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			c := must(e.courses.Create(ctx, "Raced"))(t)
			ch := must(e.chapters.Create(ctx, c.ID, "Only"))(t)
			must(e.chapters.UpdateVideo(ctx, c.ID, ch.ID, "https://videos.example.com/first.mp4"))(t)

			before := len(e.assets.Created()) - 1

			var (
				wg        sync.WaitGroup
				start     = make(chan struct{})
				swapErr   error
				deleteErr error
			)
			wg.Add(2)
			go func() {
				defer wg.Done()
				<-start
				_, swapErr = e.chapters.UpdateVideo(ctx, c.ID, ch.ID, "https://videos.example.com/second.mp4")
			}()
			go func() {
				defer wg.Done()
				<-start
				_, deleteErr = e.courses.Delete(ctx, c.ID)
			}()
			close(start)
			wg.Wait()

			if deleteErr != nil {
				t.Fatalf("deleting: %v", deleteErr)
			}
			if swapErr != nil && !errors.Is(swapErr, apperr.ErrCourseNotFound) && !errors.Is(swapErr, apperr.ErrChapterNotFound) {
				t.Fatalf("swapping video: %v", swapErr)
			}

			deleted := make(map[string]bool)
			for _, id := range e.assets.Deleted() {
				deleted[id] = true
			}
			for _, id := range e.assets.Created()[before:] {
				if !deleted[id] {
					t.Fatalf("round %d: asset %s was never deleted", i, id)
				}
			}
		}
	})

	t.Run("delete unknown course", func(t *testing.T) {
		if _, err := e.courses.Delete(ctx, validate.GenerateID()); !errors.Is(err, apperr.ErrCourseNotFound) {
			t.Fatalf("expected ErrCourseNotFound, got %v", err)
		}
	})

	t.Run("update category must exist", func(t *testing.T) {
		c := must(e.courses.Create(ctx, "Lonely"))(t)

		_, err := e.courses.UpdateCategory(ctx, c.ID, validate.GenerateID())
		if !errors.Is(err, apperr.ErrCategoryNotFound) {
			t.Fatalf("expected ErrCategoryNotFound, got %v", err)
		}
	})

	t.Run("deleting a category keeps its courses", func(t *testing.T) {
		cat := must(e.categories.Create(ctx, "Temporary"))(t)
		c := must(e.courses.Create(ctx, "Orphan"))(t)
		must(e.courses.UpdateCategory(ctx, c.ID, cat.ID))(t)

		if err := e.categories.Delete(ctx, cat.ID); err != nil {
			t.Fatalf("deleting category: %v", err)
		}

		got := must(e.courses.Get(ctx, c.ID))(t)
		if got.CategoryID != nil {
			t.Fatalf("expected no category, got %s", *got.CategoryID)
		}
	})

	t.Run("admin listing counts", func(t *testing.T) {
		c := e.publishable(t, "Counted", 0)
		must(e.courses.CheckoutFree(ctx, c.ID, "user_a"))(t)
		must(e.courses.CheckoutFree(ctx, c.ID, "user_b"))(t)

		list := must(e.courses.List(ctx))(t)
		for _, ac := range list {
			if ac.Course.ID != c.ID {
				continue
			}
			if ac.ChapterLength != 1 || ac.PurchasedNumber != 2 {
				t.Fatalf("expected 1 chapter and 2 purchases, got %d and %d", ac.ChapterLength, ac.PurchasedNumber)
			}
			return
		}
		t.Fatal("course missing from the admin listing")
	})
}

func TestCategories(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, name := range []string{"Zeta", "Alpha", "Marketing"} {
		must(e.categories.Create(ctx, name))(t)
	}

	list := must(e.categories.List(ctx))(t)

	var names []string
	for _, c := range list {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"Alpha", "Marketing", "Zeta"}, names); diff != "" {
		t.Fatalf("wrong order (-want +got):\n%s", diff)
	}

	if _, err := e.categories.Rename(ctx, validate.GenerateID(), "Nope"); !errors.Is(err, apperr.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}
