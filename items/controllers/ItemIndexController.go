package controllers

import (
	"elasticsearch-demo-backend/config"
	"elasticsearch-demo-backend/db/models"
	"elasticsearch-demo-backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CreateItemIndexController creates the item index and puts its mapping.
func (ic *ItemController) CreateItemIndexController(c *fiber.Ctx) error {
	if err := ic.ItemRepo.EnsureIndex(c.UserContext()); err != nil {
		config.Logger.Error("Failed to create item index", zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to create item index")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Item index ready",
		"index":   models.ItemIndex.Name,
	})
}

func (ic *ItemController) DeleteItemIndexController(c *fiber.Ctx) error {
	deleted, err := ic.ItemService.DeleteIndex(c.UserContext())
	if err != nil {
		config.Logger.Error("Failed to delete item index", zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to delete item index")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"index":   models.ItemIndex.Name,
		"deleted": deleted,
	})
}
