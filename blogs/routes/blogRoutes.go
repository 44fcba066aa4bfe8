package routes

import (
	"elasticsearch-demo-backend/blogs/controllers"
	blog_repositories "elasticsearch-demo-backend/blogs/repositories"

	"github.com/gofiber/fiber/v2"
)

func BlogRouterInit(app *fiber.App, blogRepository blog_repositories.BlogRepository, writeLimiter fiber.Handler) {
	blogController := &controllers.BlogController{BlogRepo: blogRepository}

	blogRoutes := app.Group("/api/v1/blogs")
	blogRoutes.Get("/master/:name", blogController.FindBlogsByMasterNameController)
	blogRoutes.Get("/", blogController.GetBlogsController)
	blogRoutes.Post("/", writeLimiter, blogController.CreateBlogController)
	blogRoutes.Get("/:id", blogController.GetBlogController)
	blogRoutes.Put("/:id", writeLimiter, blogController.UpdateBlogController)
	blogRoutes.Delete("/:id", writeLimiter, blogController.DeleteBlogController)
}
