package controllers

import (
	"strconv"
	"strings"

	"elasticsearch-demo-backend/config"
	"elasticsearch-demo-backend/search"
	"elasticsearch-demo-backend/utils"
	"elasticsearch-demo-backend/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SearchItemsByTitleController runs a match query on the title and returns
// one page together with the total hit count.
func (ic *ItemController) SearchItemsByTitleController(c *fiber.Ctx) error {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}
	params := pagination.ParsePaginationParams(c)
	if err := pagination.ValidatePaginationParams(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	req := search.NewQueryBuilder().
		WithQuery(search.Match("title", title)).
		WithPageable(params.PageRequest()).
		WithSort(params.Sorts()...).
		Build()
	page, err := ic.ItemRepo.SearchRequest(c.UserContext(), req)
	if err != nil {
		config.Logger.Error("Item title search failed", zap.String("title", title), zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to search items")
	}
	return c.Status(fiber.StatusOK).JSON(pagination.NewPaginatedResponse(c, page, params))
}

func (ic *ItemController) FindItemsByPriceBetweenController(c *fiber.Ctx) error {
	minPrice, err := strconv.ParseFloat(c.Query("min"), 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid min parameter"})
	}
	maxPrice, err := strconv.ParseFloat(c.Query("max"), 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid max parameter"})
	}
	if minPrice > maxPrice {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "min cannot be greater than max"})
	}

	items, err := ic.ItemRepo.FindByPriceBetween(c.UserContext(), minPrice, maxPrice)
	if err != nil {
		config.Logger.Error("Price range search failed", zap.Float64("min", minPrice), zap.Float64("max", maxPrice), zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to search items")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": items, "total": len(items)})
}

func (ic *ItemController) FindItemsByTitleOrPriceController(c *fiber.Ctx) error {
	title := strings.TrimSpace(c.Query("title"))
	price, err := strconv.ParseFloat(c.Query("price"), 64)
	if title == "" || err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title and a numeric price are required"})
	}

	items, err := ic.ItemRepo.FindByTitleOrPrice(c.UserContext(), title, price)
	if err != nil {
		config.Logger.Error("Title or price search failed", zap.String("title", title), zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to search items")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": items, "total": len(items)})
}

func (ic *ItemController) FindItemsByCategoryController(c *fiber.Ctx) error {
	category := strings.TrimSpace(c.Params("category"))
	params := pagination.ParsePaginationParams(c)
	if err := pagination.ValidatePaginationParams(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	page, err := ic.ItemRepo.FindByCategory(c.UserContext(), category, params.PageRequest(), params.Sorts()...)
	if err != nil {
		config.Logger.Error("Category search failed", zap.String("category", category), zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to search items")
	}
	return c.Status(fiber.StatusOK).JSON(pagination.NewPaginatedResponse(c, page, params))
}
