package demo

import (
	"context"
	"fmt"
	"io"
	"strings"

	"elasticsearch-demo-backend/db/models"
	item_repositories "elasticsearch-demo-backend/items/repositories"
	"elasticsearch-demo-backend/repositories"
	"elasticsearch-demo-backend/search"
	"elasticsearch-demo-backend/seeds"

	"go.uber.org/zap"
)

// Step is one named scenario in the walkthrough.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runner replays the item walkthrough against an engine and prints what
// each step sees.
type Runner struct {
	out      io.Writer
	template *repositories.IndexTemplate
	items    item_repositories.ItemRepository
	logger   *zap.Logger
}

func NewRunner(engine search.Engine, out io.Writer, logger *zap.Logger) *Runner {
	return &Runner{
		out:      out,
		template: repositories.NewIndexTemplate(engine, logger),
		items:    item_repositories.NewItemRepository(engine, logger),
		logger:   logger,
	}
}

func (r *Runner) Steps() []Step {
	return []Step{
		{"create-index", r.createIndex},
		{"delete-index", r.deleteIndex},
		{"add-document", r.addDocument},
		{"add-documents", r.addDocuments},
		{"update", r.update},
		{"find-all", r.findAll},
		{"find-by-price-between", r.findByPriceBetween},
		{"find-by-title-or-price", r.findByTitleOrPrice},
		{"match-query", r.matchQuery},
		{"native-query", r.nativeQuery},
		{"paging", r.paging},
		{"sort", r.sort},
		{"term-aggregation", r.termAggregation},
		{"sub-aggregation", r.subAggregation},
	}
}

// Run executes the named steps in walkthrough order, or all of them when
// none are named.
func (r *Runner) Run(ctx context.Context, only ...string) error {
	want := make(map[string]bool, len(only))
	for _, name := range only {
		want[name] = true
	}
	known := make(map[string]bool)
	for _, s := range r.Steps() {
		known[s.Name] = true
	}
	for name := range want {
		if !known[name] {
			return fmt.Errorf("unknown step %q", name)
		}
	}

	for _, s := range r.Steps() {
		if len(want) > 0 && !want[s.Name] {
			continue
		}
		fmt.Fprintf(r.out, "== %s\n", s.Name)
		if err := s.Run(ctx); err != nil {
			r.logger.Error("Step failed", zap.String("step", s.Name), zap.Error(err))
			return fmt.Errorf("%s: %w", s.Name, err)
		}
	}
	return nil
}

func (r *Runner) printItems(items []models.Item) {
	for _, it := range items {
		fmt.Fprintln(r.out, it)
	}
}

func (r *Runner) createIndex(ctx context.Context) error {
	if err := r.template.CreateIndex(ctx, models.ItemIndex); err != nil {
		return err
	}
	if err := r.template.PutMapping(ctx, models.ItemIndex); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "index %s created\n", models.ItemIndex.Name)
	return nil
}

// deleteIndex drops a stale index by name and the item index by its spec.
// The item index is recreated right away so later steps write into the
// declared mapping rather than a dynamic one.
func (r *Runner) deleteIndex(ctx context.Context) error {
	for _, name := range []string{"heima"} {
		deleted, err := r.template.DeleteIndex(ctx, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "index %s deleted: %t\n", name, deleted)
	}
	deleted, err := r.template.DeleteIndexFor(ctx, models.ItemIndex)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "index %s deleted: %t\n", models.ItemIndex.Name, deleted)
	return r.template.EnsureIndex(ctx, models.ItemIndex)
}

func (r *Runner) addDocument(ctx context.Context) error {
	if err := r.items.EnsureIndex(ctx); err != nil {
		return err
	}
	item := models.NewItem(1, "小米手机7", " 手机", "小米", 3499.00, "http://image.leyou.com/13123.jpg")
	if _, err := r.items.Save(ctx, item); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "saved", item)
	return r.items.Refresh(ctx)
}

func (r *Runner) addDocuments(ctx context.Context) error {
	if err := r.items.EnsureIndex(ctx); err != nil {
		return err
	}
	saved, err := r.items.SaveAll(ctx, seeds.Items())
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "saved %d items\n", len(saved))
	return r.items.Refresh(ctx)
}

// update saves under an existing id, which replaces the document.
func (r *Runner) update(ctx context.Context) error {
	item := models.NewItem(1, "小米手机7-update", " 手机-update", "小米-update", 3499.00, "http://image.leyou.com/13123.jpg")
	if _, err := r.items.Save(ctx, item); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "updated", item)
	return r.items.Refresh(ctx)
}

func (r *Runner) findAll(ctx context.Context) error {
	items, err := r.items.FindAllSorted(ctx, search.SortBy("price", search.Desc))
	if err != nil {
		return err
	}
	r.printItems(items)
	return nil
}

func (r *Runner) findByPriceBetween(ctx context.Context) error {
	items, err := r.items.FindByPriceBetween(ctx, 2000, 3500)
	if err != nil {
		return err
	}
	r.printItems(items)
	return nil
}

func (r *Runner) findByTitleOrPrice(ctx context.Context) error {
	items, err := r.items.FindByTitleOrPrice(ctx, "小米", 2799)
	if err != nil {
		return err
	}
	r.printItems(items)
	return nil
}

func (r *Runner) matchQuery(ctx context.Context) error {
	items, err := r.items.Search(ctx, search.Match("title", "小米"))
	if err != nil {
		return err
	}
	r.printItems(items)
	return nil
}

func (r *Runner) nativeQuery(ctx context.Context) error {
	req := search.NewQueryBuilder().WithQuery(search.Match("title", "小米")).Build()
	page, err := r.items.SearchRequest(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, page.TotalElements)
	fmt.Fprintln(r.out, page.TotalPages())
	r.printItems(page.Content)
	return nil
}

func (r *Runner) paging(ctx context.Context) error {
	req := search.NewQueryBuilder().
		WithQuery(search.Term("category", "手机")).
		WithPageable(search.PageOf(0, 3)).
		Build()
	page, err := r.items.SearchRequest(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, page.TotalElements)
	fmt.Fprintln(r.out, page.TotalPages())
	fmt.Fprintln(r.out, page.Size)
	fmt.Fprintln(r.out, page.Number)
	r.printItems(page.Content)
	return nil
}

func (r *Runner) sort(ctx context.Context) error {
	req := search.NewQueryBuilder().
		WithQuery(search.Term("category", "手机")).
		WithSort(search.SortBy("price", search.Desc)).
		Build()
	page, err := r.items.SearchRequest(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, page.TotalElements)
	r.printItems(page.Content)
	return nil
}

func (r *Runner) termAggregation(ctx context.Context) error {
	stats, err := r.items.BrandStatistics(ctx, false)
	if err != nil {
		return err
	}
	for _, s := range stats {
		fmt.Fprintln(r.out, s.Brand)
		fmt.Fprintln(r.out, s.Count)
	}
	return nil
}

func (r *Runner) subAggregation(ctx context.Context) error {
	stats, err := r.items.BrandStatistics(ctx, true)
	if err != nil {
		return err
	}
	for _, s := range stats {
		fmt.Fprintf(r.out, "%s，共%d台\n", s.Brand, s.Count)
		avg := "n/a"
		if s.PriceAvg != nil {
			avg = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", *s.PriceAvg), "0"), ".")
		}
		fmt.Fprintf(r.out, "平均售价：%s\n", avg)
	}
	return nil
}
