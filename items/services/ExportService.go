package services

import (
	"bytes"
	"context"

	"elasticsearch-demo-backend/db/models"
	item_repositories "elasticsearch-demo-backend/items/repositories"
	"elasticsearch-demo-backend/search"
	"elasticsearch-demo-backend/utils"
)

var itemExportHeaders = []string{"ID", "Title", "Category", "Brand", "Price", "Image URL"}

// ExportItems writes every item, most expensive first, to a spreadsheet.
func ExportItems(ctx context.Context, repo item_repositories.ItemRepository) (*bytes.Buffer, error) {
	items, err := repo.FindAllSorted(ctx, search.SortBy("price", search.Desc))
	if err != nil {
		return nil, err
	}
	return utils.GenerateExcel("Items", itemExportHeaders, itemRows(items))
}

func itemRows(items []models.Item) [][]any {
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		rows = append(rows, []any{it.ID, it.Title, it.Category, it.Brand, it.Price.InexactFloat64(), it.ImageURL})
	}
	return rows
}
