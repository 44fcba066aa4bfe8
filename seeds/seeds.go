package seeds

import (
	"context"

	blog_repositories "elasticsearch-demo-backend/blogs/repositories"
	"elasticsearch-demo-backend/config"
	"elasticsearch-demo-backend/db/models"
	item_repositories "elasticsearch-demo-backend/items/repositories"

	"go.uber.org/zap"
)

const itemImage = "http://image.leyou.com/13123.jpg"

// Items is the phone catalogue the demo runs against.
func Items() []models.Item {
	return []models.Item{
		models.NewItem(1, "小米手机7", "手机", "小米", 3299.00, itemImage),
		models.NewItem(2, "坚果手机R1", "手机", "锤子", 3699.00, itemImage),
		models.NewItem(3, "华为META10", "手机", "华为", 4499.00, itemImage),
		models.NewItem(4, "小米Mix2S", "手机", "小米", 4299.00, itemImage),
		models.NewItem(5, "荣耀V10", "手机", "华为", 2799.00, itemImage),
	}
}

func Blogs() []models.Blog {
	return []models.Blog{
		{ID: 1, MasterName: "dc", ArticleNum: 42, CommentNum: 318, ThumbNum: 1024, Description: "notes on spring data and elasticsearch"},
		{ID: 2, MasterName: "dc", ArticleNum: 7, CommentNum: 21, ThumbNum: 96, Description: "bucket aggregations explained"},
		{ID: 3, MasterName: "leyou", ArticleNum: 15, CommentNum: 64, ThumbNum: 230, Description: "building a mall search page"},
	}
}

// SeedItems indexes the catalogue unless the index already holds items.
func SeedItems(ctx context.Context, repo item_repositories.ItemRepository) error {
	n, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		config.Logger.Info("Item index already populated, skipping seed", zap.Int64("count", n))
		return nil
	}
	if _, err := repo.SaveAll(ctx, Items()); err != nil {
		return err
	}
	config.Logger.Info("Seeded items", zap.Int("count", len(Items())))
	return nil
}

func SeedBlogs(ctx context.Context, repo blog_repositories.BlogRepository) error {
	n, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		config.Logger.Info("Blog index already populated, skipping seed", zap.Int64("count", n))
		return nil
	}
	if _, err := repo.SaveAll(ctx, Blogs()); err != nil {
		return err
	}
	config.Logger.Info("Seeded blogs", zap.Int("count", len(Blogs())))
	return nil
}
