package routes

import (
	"elasticsearch-demo-backend/items/controllers"
	item_repositories "elasticsearch-demo-backend/items/repositories"
	item_services "elasticsearch-demo-backend/items/services"

	"github.com/gofiber/fiber/v2"
)

func ItemRouterInit(
	app *fiber.App,
	itemRepository item_repositories.ItemRepository,
	itemService *item_services.ItemService,
	brandService *item_services.BrandStatisticsService,
	writeLimiter fiber.Handler,
) {
	itemController := &controllers.ItemController{
		ItemRepo:     itemRepository,
		ItemService:  itemService,
		BrandService: brandService,
	}

	itemRoutes := app.Group("/api/v1/items")

	itemRoutes.Post("/index", writeLimiter, itemController.CreateItemIndexController)
	itemRoutes.Delete("/index", writeLimiter, itemController.DeleteItemIndexController)

	itemRoutes.Get("/search", itemController.SearchItemsByTitleController)
	itemRoutes.Get("/price-range", itemController.FindItemsByPriceBetweenController)
	itemRoutes.Get("/title-or-price", itemController.FindItemsByTitleOrPriceController)
	itemRoutes.Get("/category/:category", itemController.FindItemsByCategoryController)
	itemRoutes.Get("/aggregations/brands", itemController.BrandStatisticsController)
	itemRoutes.Get("/export", itemController.ExportItemsController)

	itemRoutes.Get("/", itemController.GetItemsController)
	itemRoutes.Post("/", writeLimiter, itemController.CreateItemController)
	itemRoutes.Post("/bulk", writeLimiter, itemController.BulkCreateItemsController)
	itemRoutes.Get("/:id", itemController.GetItemController)
	itemRoutes.Put("/:id", writeLimiter, itemController.UpdateItemController)
	itemRoutes.Delete("/:id", writeLimiter, itemController.DeleteItemController)
}
