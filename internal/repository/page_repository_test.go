package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/autoprofit/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate models failed: %v", err)
	}
	return db
}

func TestPageUpsertOverwritesExistingSlug(t *testing.T) {
	repo := NewPageRepository(setupRepositoryTestDB(t))

	first := &models.Page{
		Slug:      "best-running-shoes",
		Title:     "first",
		Keyword:   "best running shoes",
		OfferID:   "trailpro",
		OfferURL:  "https://example.com/a",
		WordCount: 300,
	}
	if err := repo.Upsert(first); err != nil {
		t.Fatalf("insert page failed: %v", err)
	}
	created, err := repo.GetBySlug("best-running-shoes")
	if err != nil || created == nil {
		t.Fatalf("get page failed: %v", err)
	}

	second := &models.Page{
		Slug:      "best-running-shoes",
		Title:     "second",
		Keyword:   "best running shoes",
		OfferID:   "trailpro",
		OfferURL:  "https://example.com/b",
		WordCount: 320,
		UpdatedAt: created.UpdatedAt.Add(time.Minute),
	}
	if err := repo.Upsert(second); err != nil {
		t.Fatalf("overwrite page failed: %v", err)
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("count pages failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one page, got %d", count)
	}
	got, err := repo.GetBySlug("best-running-shoes")
	if err != nil || got == nil {
		t.Fatalf("get page failed: %v", err)
	}
	if got.Title != "second" || got.OfferURL != "https://example.com/b" || got.WordCount != 320 {
		t.Fatalf("page not overwritten: %+v", got)
	}
	if !got.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("updated_at not replaced: before=%s after=%s", created.UpdatedAt, got.UpdatedAt)
	}
}

func TestPageGetBySlugMissingReturnsNil(t *testing.T) {
	repo := NewPageRepository(setupRepositoryTestDB(t))
	page, err := repo.GetBySlug("missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != nil {
		t.Fatalf("expected nil page, got %+v", page)
	}
	exists, err := repo.ExistsBySlug("missing")
	if err != nil || exists {
		t.Fatalf("expected not exists, got %v err=%v", exists, err)
	}
}

func TestPageListRecentOrdersByUpdatedAt(t *testing.T) {
	repo := NewPageRepository(setupRepositoryTestDB(t))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, slug := range []string{"old", "mid", "new"} {
		page := &models.Page{
			Slug:      slug,
			Title:     slug,
			Keyword:   slug,
			OfferID:   "offer",
			OfferURL:  "https://example.com",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := repo.Upsert(page); err != nil {
			t.Fatalf("insert %s failed: %v", slug, err)
		}
	}

	pages, err := repo.ListRecent(2)
	if err != nil {
		t.Fatalf("list recent failed: %v", err)
	}
	if len(pages) != 2 || pages[0].Slug != "new" || pages[1].Slug != "mid" {
		t.Fatalf("unexpected order: %+v", pages)
	}

	listed, total, err := repo.List(PageListFilter{Page: 1, PageSize: 10, Search: "ol"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(listed) != 1 || listed[0].Slug != "old" {
		t.Fatalf("unexpected search result: total=%d pages=%+v", total, listed)
	}

	escaped, total, err := repo.List(PageListFilter{Page: 1, PageSize: 10, Search: "o%"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 0 || len(escaped) != 0 {
		t.Fatalf("wildcards in search must be literal, got total=%d", total)
	}

	paged, total, err := repo.List(PageListFilter{Page: 2, PageSize: 2, OfferID: "offer"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 || len(paged) != 1 || paged[0].Slug != "old" {
		t.Fatalf("unexpected second page: total=%d pages=%+v", total, paged)
	}
}
