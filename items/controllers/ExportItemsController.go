package controllers

import (
	"fmt"
	"time"

	"elasticsearch-demo-backend/config"
	item_services "elasticsearch-demo-backend/items/services"
	"elasticsearch-demo-backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (ic *ItemController) ExportItemsController(c *fiber.Ctx) error {
	buf, err := item_services.ExportItems(c.UserContext(), ic.ItemRepo)
	if err != nil {
		config.Logger.Error("Failed to export items", zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to export items")
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, utils.ExcelFileName("items", time.Now())))
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}
