package models

import (
	"fmt"
	"strconv"

	"elasticsearch-demo-backend/search"
)

// BlogIndex must be lowercase; Elasticsearch rejects mixed case index names.
var BlogIndex = search.IndexSpec{
	Name: "testdata",
	Type: "blogs",
	Fields: []search.FieldSpec{
		{Name: "id", Type: search.Long},
		{Name: "masterName", Type: search.Keyword},
		{Name: "articleNum", Type: search.Integer},
		{Name: "commentNum", Type: search.Integer},
		{Name: "thumbNum", Type: search.Integer},
		{Name: "description", Type: search.Text, Analyzer: "standard"},
	},
}

type Blog struct {
	ID          int64  `json:"id"`
	MasterName  string `json:"masterName"`
	ArticleNum  int    `json:"articleNum"`
	CommentNum  int    `json:"commentNum"`
	ThumbNum    int    `json:"thumbNum"`
	Description string `json:"description"`
}

func (b Blog) DocumentID() string {
	return strconv.FormatInt(b.ID, 10)
}

func (Blog) IndexSpec() search.IndexSpec {
	return BlogIndex
}

func (b Blog) String() string {
	return fmt.Sprintf("Blog{id=%d, masterName='%s', articleNum=%d, commentNum=%d, thumbNum=%d, description='%s'}",
		b.ID, b.MasterName, b.ArticleNum, b.CommentNum, b.ThumbNum, b.Description)
}
