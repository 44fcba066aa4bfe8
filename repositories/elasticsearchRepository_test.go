package repositories

import (
	"context"
	"errors"
	"testing"

	bleveServices "elasticsearch-demo-backend/bleve/services"
	"elasticsearch-demo-backend/db/models"
	"elasticsearch-demo-backend/search"

	"go.uber.org/zap"
)

func newItemRepo(t *testing.T) (*ElasticsearchRepository[models.Item], *bleveServices.IndexingService) {
	t.Helper()
	engine := bleveServices.NewIndexingService(zap.NewNop(), "")
	t.Cleanup(func() { _ = engine.Close() })

	repo := NewElasticsearchRepository[models.Item](engine, zap.NewNop())
	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	return repo, engine
}

func catalogue() []models.Item {
	return []models.Item{
		models.NewItem(1, "mi phone 7", "phone", "xiaomi", 3299, ""),
		models.NewItem(2, "nut phone r1", "phone", "smartisan", 3699, ""),
		models.NewItem(3, "mate 10", "phone", "huawei", 4499, ""),
		models.NewItem(4, "mi mix 2s", "phone", "xiaomi", 4299, ""),
		models.NewItem(5, "honor v10", "tablet", "huawei", 2799, ""),
	}
}

func seeded(t *testing.T) *ElasticsearchRepository[models.Item] {
	t.Helper()
	repo, _ := newItemRepo(t)
	if _, err := repo.SaveAll(context.Background(), catalogue()); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	return repo
}

func ids(items []models.Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func equalIDs(got []int64, want ...int64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestSaveFindAndReplace(t *testing.T) {
	repo, _ := newItemRepo(t)
	ctx := context.Background()

	item := models.NewItem(1, "mi phone 7", " phone", "xiaomi", 3499, "http://image.example.com/1.jpg")
	if _, err := repo.Save(ctx, item); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.FindByID(ctx, "1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Title != item.Title || !got.Price.Equal(item.Price) || got.ImageURL != item.ImageURL {
		t.Errorf("FindByID = %v, want %v", got, item)
	}

	item.Title = "mi phone 7 update"
	if _, err := repo.Save(ctx, item); err != nil {
		t.Fatalf("Save update: %v", err)
	}
	if n, _ := repo.Count(ctx); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
	got, _ = repo.FindByID(ctx, "1")
	if got.Title != "mi phone 7 update" {
		t.Errorf("title after update = %q", got.Title)
	}
}

func TestFindByIDMissing(t *testing.T) {
	repo, _ := newItemRepo(t)
	ctx := context.Background()

	if _, err := repo.FindByID(ctx, "404"); !errors.Is(err, search.ErrDocumentNotFound) {
		t.Errorf("FindByID = %v, want ErrDocumentNotFound", err)
	}
	ok, err := repo.ExistsByID(ctx, "404")
	if err != nil || ok {
		t.Errorf("ExistsByID = %t, %v; want false, nil", ok, err)
	}
}

func TestFindAllSorted(t *testing.T) {
	repo := seeded(t)

	items, err := repo.FindAllSorted(context.Background(), search.SortBy("price", search.Desc))
	if err != nil {
		t.Fatalf("FindAllSorted: %v", err)
	}
	if got := ids(items); !equalIDs(got, 3, 4, 2, 1, 5) {
		t.Errorf("order = %v, want [3 4 2 1 5]", got)
	}
}

func TestFindAllOnEmptyIndex(t *testing.T) {
	repo, _ := newItemRepo(t)
	items, err := repo.FindAll(context.Background())
	if err != nil || items == nil || len(items) != 0 {
		t.Errorf("FindAll = %v, %v; want empty slice", items, err)
	}
}

func TestFindAllPaged(t *testing.T) {
	repo := seeded(t)

	page, err := repo.FindAllPaged(context.Background(), search.PageOf(1, 2), search.SortBy("id", search.Asc))
	if err != nil {
		t.Fatalf("FindAllPaged: %v", err)
	}
	if got := ids(page.Content); !equalIDs(got, 3, 4) {
		t.Errorf("content = %v, want [3 4]", got)
	}
	if page.TotalElements != 5 || page.TotalPages() != 3 || !page.HasNext() || !page.HasPrevious() {
		t.Errorf("page metadata = %+v", page)
	}
}

func TestFindAllByID(t *testing.T) {
	repo := seeded(t)

	items, err := repo.FindAllByID(context.Background(), []string{"5", "2", "77"})
	if err != nil {
		t.Fatalf("FindAllByID: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("found %d items, want 2", len(items))
	}
}

func TestDerivedQueries(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	between := search.MustParseMethod("findByPriceBetweenOrderByPriceAsc")
	items, err := repo.FindBy(ctx, between, 2000, 3500)
	if err != nil {
		t.Fatalf("FindBy: %v", err)
	}
	if got := ids(items); !equalIDs(got, 5, 1) {
		t.Errorf("findByPriceBetween = %v, want [5 1]", got)
	}

	n, err := repo.CountBy(ctx, search.MustParseMethod("countByBrandIn"), []string{"xiaomi", "huawei"})
	if err != nil || n != 4 {
		t.Errorf("countByBrandIn = %d, %v; want 4", n, err)
	}

	exists, err := repo.ExistsBy(ctx, search.MustParseMethod("existsByCategory"), "tablet")
	if err != nil || !exists {
		t.Errorf("existsByCategory = %t, %v", exists, err)
	}

	page, err := repo.FindPageBy(ctx, search.MustParseMethod("findByCategoryOrderByPriceDesc"), search.PageOf(0, 2), "phone")
	if err != nil {
		t.Fatalf("FindPageBy: %v", err)
	}
	if got := ids(page.Content); !equalIDs(got, 3, 4) || page.TotalElements != 4 {
		t.Errorf("findByCategory page = %v of %d", got, page.TotalElements)
	}

	deleted, err := repo.DeleteBy(ctx, search.MustParseMethod("deleteByBrand"), "huawei")
	if err != nil || deleted != 2 {
		t.Errorf("deleteByBrand = %d, %v; want 2", deleted, err)
	}
	if n, _ := repo.Count(ctx); n != 3 {
		t.Errorf("Count after deleteByBrand = %d, want 3", n)
	}
}

func TestDerivedQueryActionMismatch(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	if _, err := repo.FindBy(ctx, search.MustParseMethod("deleteByBrand"), "x"); !errors.Is(err, search.ErrInvalidDerivedQuery) {
		t.Errorf("FindBy(delete method) = %v", err)
	}
	if _, err := repo.DeleteBy(ctx, search.MustParseMethod("findByBrand"), "x"); !errors.Is(err, search.ErrInvalidDerivedQuery) {
		t.Errorf("DeleteBy(find method) = %v", err)
	}
	if _, err := repo.FindBy(ctx, search.MustParseMethod("findByPriceBetween"), 1); !errors.Is(err, search.ErrInvalidDerivedQuery) {
		t.Errorf("FindBy with too few args = %v", err)
	}
}

func TestDeleteOperations(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	if err := repo.DeleteByID(ctx, "1"); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if err := repo.Delete(ctx, catalogue()[1]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n, _ := repo.Count(ctx); n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}

	deleted, err := repo.DeleteAll(ctx)
	if err != nil || deleted != 3 {
		t.Errorf("DeleteAll = %d, %v; want 3", deleted, err)
	}
}

func TestSearchRequestAggregations(t *testing.T) {
	repo := seeded(t)

	req := search.NewQueryBuilder().
		WithQuery(search.Term("category", "phone")).
		WithSourceFilter(search.NoSource()).
		WithPageable(search.PageOf(0, 1)).
		AddAggregation(search.MaxAgg("max_price", "price")).
		Build()
	page, err := repo.SearchRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("SearchRequest: %v", err)
	}
	if len(page.Content) != 0 {
		t.Errorf("content = %v, want none with source disabled", page.Content)
	}
	maxPrice, ok := page.Aggregation("max_price")
	if !ok || maxPrice.Value == nil || *maxPrice.Value != 4499 {
		t.Errorf("max_price = %+v", maxPrice)
	}
}

func TestIndexTemplate(t *testing.T) {
	repo, engine := newItemRepo(t)
	tmpl := NewIndexTemplate(engine, zap.NewNop())
	ctx := context.Background()

	if err := tmpl.EnsureIndex(ctx, repo.Spec()); err != nil {
		t.Errorf("EnsureIndex on existing index = %v", err)
	}

	deleted, err := tmpl.DeleteIndex(ctx, "heima")
	if err != nil || deleted {
		t.Errorf("DeleteIndex(heima) = %t, %v; want false, nil", deleted, err)
	}

	deleted, err = tmpl.DeleteIndexFor(ctx, repo.Spec())
	if err != nil || !deleted {
		t.Errorf("DeleteIndexFor(item) = %t, %v; want true, nil", deleted, err)
	}
	if ok, _ := tmpl.IndexExists(ctx, repo.Index()); ok {
		t.Error("item index should be gone")
	}
}
