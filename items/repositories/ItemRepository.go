package repositories

import (
	"context"

	"elasticsearch-demo-backend/db/models"
	base "elasticsearch-demo-backend/repositories"
	"elasticsearch-demo-backend/search"

	"go.uber.org/zap"
)

const (
	BrandsAggregation   = "brands"
	PriceAvgAggregation = "price_avg"
)

var (
	findByPriceBetween = search.MustParseMethod("findByPriceBetween")
	findByTitleOrPrice = search.MustParseMethod("findByTitleOrPrice")
)

// BrandStat is one bucket of the brands aggregation.
type BrandStat struct {
	Brand    string   `json:"brand"`
	Count    int64    `json:"count"`
	PriceAvg *float64 `json:"price_avg,omitempty"`
}

type ItemRepository interface {
	EnsureIndex(ctx context.Context) error
	DeleteIndex(ctx context.Context) (bool, error)
	Refresh(ctx context.Context) error

	Save(ctx context.Context, item models.Item) (models.Item, error)
	SaveAll(ctx context.Context, items []models.Item) ([]models.Item, error)
	FindByID(ctx context.Context, id string) (models.Item, error)
	FindAllSorted(ctx context.Context, sorts ...search.Sort) ([]models.Item, error)
	FindAllPaged(ctx context.Context, page search.PageRequest, sorts ...search.Sort) (*search.Page[models.Item], error)
	Count(ctx context.Context) (int64, error)
	DeleteByID(ctx context.Context, id string) error

	Search(ctx context.Context, q search.Query) ([]models.Item, error)
	SearchRequest(ctx context.Context, req *search.Request) (*search.Page[models.Item], error)

	FindByPriceBetween(ctx context.Context, minPrice, maxPrice float64) ([]models.Item, error)
	FindByTitleOrPrice(ctx context.Context, title string, price float64) ([]models.Item, error)
	FindByCategory(ctx context.Context, category string, page search.PageRequest, sorts ...search.Sort) (*search.Page[models.Item], error)
	BrandStatistics(ctx context.Context, withPriceAvg bool) ([]BrandStat, error)
}

type itemRepository struct {
	*base.ElasticsearchRepository[models.Item]
	template *base.IndexTemplate
	logger   *zap.Logger
}

func NewItemRepository(engine search.Engine, logger *zap.Logger) ItemRepository {
	return &itemRepository{
		ElasticsearchRepository: base.NewElasticsearchRepository[models.Item](engine, logger),
		template:                base.NewIndexTemplate(engine, logger),
		logger:                  logger,
	}
}

func (r *itemRepository) DeleteIndex(ctx context.Context) (bool, error) {
	return r.template.DeleteIndexFor(ctx, models.ItemIndex)
}

// FindByPriceBetween returns items priced within [minPrice, maxPrice].
func (r *itemRepository) FindByPriceBetween(ctx context.Context, minPrice, maxPrice float64) ([]models.Item, error) {
	return r.FindBy(ctx, findByPriceBetween, minPrice, maxPrice)
}

// FindByTitleOrPrice matches the title text or the exact price.
func (r *itemRepository) FindByTitleOrPrice(ctx context.Context, title string, price float64) ([]models.Item, error) {
	return r.FindBy(ctx, findByTitleOrPrice, title, price)
}

// FindByCategory pages through one category. Category is a keyword so the
// match is exact.
func (r *itemRepository) FindByCategory(ctx context.Context, category string, page search.PageRequest, sorts ...search.Sort) (*search.Page[models.Item], error) {
	req := search.NewQueryBuilder().
		WithQuery(search.Term("category", category)).
		WithPageable(page).
		WithSort(sorts...).
		Build()
	return r.SearchRequest(ctx, req)
}

// BrandStatistics runs the brands terms aggregation, optionally with the
// average price per brand. No documents are fetched.
func (r *itemRepository) BrandStatistics(ctx context.Context, withPriceAvg bool) ([]BrandStat, error) {
	agg := search.TermsAgg(BrandsAggregation, "brand")
	if withPriceAvg {
		agg.SubAggregation(search.AvgAgg(PriceAvgAggregation, "price"))
	}
	req := search.NewQueryBuilder().
		WithSourceFilter(search.NoSource()).
		WithPageable(search.PageOf(0, 1)).
		AddAggregation(agg).
		Build()

	page, err := r.SearchRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	res, ok := page.Aggregation(BrandsAggregation)
	if !ok {
		return []BrandStat{}, nil
	}
	stats := make([]BrandStat, 0, len(res.Buckets))
	for _, b := range res.Buckets {
		stat := BrandStat{Brand: b.Key, Count: b.DocCount}
		if v, ok := b.Metric(PriceAvgAggregation); ok {
			stat.PriceAvg = &v
		}
		stats = append(stats, stat)
	}
	return stats, nil
}
