package controllers

import (
	item_repositories "elasticsearch-demo-backend/items/repositories"
	item_services "elasticsearch-demo-backend/items/services"
)

type ItemController struct {
	ItemRepo     item_repositories.ItemRepository
	ItemService  *item_services.ItemService
	BrandService *item_services.BrandStatisticsService
}
