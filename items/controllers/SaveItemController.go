package controllers

import (
	"errors"
	"strconv"
	"strings"

	"elasticsearch-demo-backend/config"
	"elasticsearch-demo-backend/db/models"
	item_services "elasticsearch-demo-backend/items/services"
	"elasticsearch-demo-backend/search"
	"elasticsearch-demo-backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const maxBulkItems = 1000

func validateItem(item models.Item) error {
	if item.ID <= 0 {
		return errors.New("id must be a positive number")
	}
	if strings.TrimSpace(item.Title) == "" {
		return errors.New("title is required")
	}
	if item.Price.IsNegative() {
		return errors.New("price cannot be negative")
	}
	return nil
}

func (ic *ItemController) CreateItemController(c *fiber.Ctx) error {
	var item models.Item
	if err := c.BodyParser(&item); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validateItem(item); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	saved, err := ic.ItemService.Save(c.UserContext(), item)
	if err != nil {
		config.Logger.Error("Failed to save item", zap.Int64("id", item.ID), zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to save item")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": saved})
}

// BulkCreateItemsController indexes a batch. With ?async=true the batch is
// queued and 202 is returned with the task id.
func (ic *ItemController) BulkCreateItemsController(c *fiber.Ctx) error {
	var items []models.Item
	if err := c.BodyParser(&items); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if len(items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No items provided"})
	}
	if len(items) > maxBulkItems {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Too many items in one request", "max": maxBulkItems})
	}
	for i, item := range items {
		if err := validateItem(item); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "index": i})
		}
	}

	if c.QueryBool("async", false) {
		taskID, err := ic.ItemService.SaveAllAsync(c.UserContext(), items)
		if errors.Is(err, item_services.ErrAsyncUnavailable) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			config.Logger.Error("Failed to queue bulk index", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to queue items"})
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"task_id": taskID, "count": len(items)})
	}

	saved, err := ic.ItemService.SaveAll(c.UserContext(), items)
	if err != nil {
		config.Logger.Error("Failed to bulk save items", zap.Int("count", len(items)), zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to save items")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": saved, "count": len(saved)})
}

// UpdateItemController replaces an existing item. The id in the path wins
// over any id in the body.
func (ic *ItemController) UpdateItemController(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item id"})
	}

	var item models.Item
	if err := c.BodyParser(&item); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	item.ID = id
	if err := validateItem(item); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if _, err := ic.ItemRepo.FindByID(c.UserContext(), item.DocumentID()); err != nil {
		if errors.Is(err, search.ErrDocumentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
		}
		return utils.SearchErrorResponse(c, err, "Failed to load item")
	}

	saved, err := ic.ItemService.Save(c.UserContext(), item)
	if err != nil {
		config.Logger.Error("Failed to update item", zap.Int64("id", id), zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to update item")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": saved})
}
