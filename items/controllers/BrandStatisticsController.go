package controllers

import (
	"elasticsearch-demo-backend/config"
	"elasticsearch-demo-backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// BrandStatisticsController returns document counts per brand and, unless
// price_avg=false, the average price of each brand.
func (ic *ItemController) BrandStatisticsController(c *fiber.Ctx) error {
	withPriceAvg := c.QueryBool("price_avg", true)

	stats, err := ic.BrandService.Get(c.UserContext(), withPriceAvg)
	if err != nil {
		config.Logger.Error("Failed to aggregate brands", zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to aggregate brands")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": stats})
}
