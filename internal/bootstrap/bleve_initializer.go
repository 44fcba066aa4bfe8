package bootstrap

import (
	"context"

	blog_repositories "elasticsearch-demo-backend/blogs/repositories"
	"elasticsearch-demo-backend/config"
	item_repositories "elasticsearch-demo-backend/items/repositories"
	"elasticsearch-demo-backend/seeds"

	"go.uber.org/zap"
)

// IndexSearchData makes sure both indices exist with their mappings and
// seeds the ones that are empty.
func IndexSearchData(
	ctx context.Context,
	itemRepo item_repositories.ItemRepository,
	blogRepo blog_repositories.BlogRepository,
	seed bool,
) error {
	if err := itemRepo.EnsureIndex(ctx); err != nil {
		config.Logger.Error("Failed to prepare item index", zap.Error(err))
		return err
	}
	if err := blogRepo.EnsureIndex(ctx); err != nil {
		config.Logger.Error("Failed to prepare blog index", zap.Error(err))
		return err
	}
	if !seed {
		return nil
	}

	if err := seeds.SeedItems(ctx, itemRepo); err != nil {
		config.Logger.Error("Failed to seed items", zap.Error(err))
		return err
	}
	if err := seeds.SeedBlogs(ctx, blogRepo); err != nil {
		config.Logger.Error("Failed to seed blogs", zap.Error(err))
		return err
	}
	return nil
}
