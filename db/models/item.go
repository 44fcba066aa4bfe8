package models

import (
	"fmt"
	"strconv"

	"elasticsearch-demo-backend/search"

	"github.com/shopspring/decimal"
)

// ItemIndex is where items live. Titles use the standard analyzer so the
// index works on a stock cluster without the ik plugin.
var ItemIndex = search.IndexSpec{
	Name:     "item",
	Type:     "docs",
	Shards:   1,
	Replicas: 0,
	Fields: []search.FieldSpec{
		{Name: "id", Type: search.Long},
		{Name: "title", Type: search.Text, Analyzer: "standard"},
		{Name: "category", Type: search.Keyword},
		{Name: "brand", Type: search.Keyword},
		{Name: "price", Type: search.Double},
		{Name: "imageUrl", Type: search.Keyword, NotIndexed: true},
	},
}

// Item is a product in the catalogue.
type Item struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Category string          `json:"category"`
	Brand    string          `json:"brand"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl"`
}

func NewItem(id int64, title, category, brand string, price float64, imageURL string) Item {
	return Item{
		ID:       id,
		Title:    title,
		Category: category,
		Brand:    brand,
		Price:    decimal.NewFromFloat(price),
		ImageURL: imageURL,
	}
}

func (i Item) DocumentID() string {
	return strconv.FormatInt(i.ID, 10)
}

func (Item) IndexSpec() search.IndexSpec {
	return ItemIndex
}

func (i Item) String() string {
	return fmt.Sprintf("Item{id=%d, title='%s', category='%s', brand='%s', price=%s, imageUrl='%s'}",
		i.ID, i.Title, i.Category, i.Brand, i.Price.StringFixed(2), i.ImageURL)
}
