package repositories

import (
	"context"

	"elasticsearch-demo-backend/db/models"
	base "elasticsearch-demo-backend/repositories"
	"elasticsearch-demo-backend/search"

	"go.uber.org/zap"
)

var findByMasterName = search.MustParseMethod("findByMasterNameOrderByIdAsc")

type BlogRepository interface {
	EnsureIndex(ctx context.Context) error
	Refresh(ctx context.Context) error

	Save(ctx context.Context, blog models.Blog) (models.Blog, error)
	SaveAll(ctx context.Context, blogs []models.Blog) ([]models.Blog, error)
	FindByID(ctx context.Context, id string) (models.Blog, error)
	FindAllPaged(ctx context.Context, page search.PageRequest, sorts ...search.Sort) (*search.Page[models.Blog], error)
	Count(ctx context.Context) (int64, error)
	DeleteByID(ctx context.Context, id string) error

	FindByMasterName(ctx context.Context, masterName string) ([]models.Blog, error)
}

type blogRepository struct {
	*base.ElasticsearchRepository[models.Blog]
}

func NewBlogRepository(engine search.Engine, logger *zap.Logger) BlogRepository {
	return &blogRepository{
		ElasticsearchRepository: base.NewElasticsearchRepository[models.Blog](engine, logger),
	}
}

func (r *blogRepository) FindByMasterName(ctx context.Context, masterName string) ([]models.Blog, error) {
	return r.FindBy(ctx, findByMasterName, masterName)
}
