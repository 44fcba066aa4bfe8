package controllers

import (
	"errors"

	"elasticsearch-demo-backend/config"
	"elasticsearch-demo-backend/search"
	"elasticsearch-demo-backend/utils"
	"elasticsearch-demo-backend/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var itemSortFields = map[string]bool{"id": true, "price": true, "brand": true, "category": true}

func (ic *ItemController) GetItemController(c *fiber.Ctx) error {
	item, err := ic.ItemRepo.FindByID(c.UserContext(), c.Params("id"))
	if errors.Is(err, search.ErrDocumentNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
	}
	if err != nil {
		config.Logger.Error("Failed to fetch item", zap.String("id", c.Params("id")), zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to fetch item")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": item})
}

// GetItemsController lists items a page at a time. sort takes a comma
// separated field list, "-price" for descending.
func (ic *ItemController) GetItemsController(c *fiber.Ctx) error {
	params := pagination.ParsePaginationParams(c)
	if err := pagination.ValidatePaginationParams(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	sorts := params.Sorts()
	for _, s := range sorts {
		if !itemSortFields[s.Field] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot sort by " + s.Field})
		}
	}

	page, err := ic.ItemRepo.FindAllPaged(c.UserContext(), params.PageRequest(), sorts...)
	if err != nil {
		config.Logger.Error("Failed to fetch paginated items", zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to fetch items")
	}
	return c.Status(fiber.StatusOK).JSON(pagination.NewPaginatedResponse(c, page, params))
}

func (ic *ItemController) DeleteItemController(c *fiber.Ctx) error {
	if err := ic.ItemService.Delete(c.UserContext(), c.Params("id")); err != nil {
		config.Logger.Error("Failed to delete item", zap.String("id", c.Params("id")), zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to delete item")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
