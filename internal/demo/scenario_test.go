package demo

import (
	"bytes"
	"context"
	"strings"
	"testing"

	bleveServices "elasticsearch-demo-backend/bleve/services"

	"go.uber.org/zap"
)

func newRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	engine := bleveServices.NewIndexingService(zap.NewNop(), "")
	t.Cleanup(func() { _ = engine.Close() })
	var out bytes.Buffer
	return NewRunner(engine, &out, zap.NewNop()), &out
}

func TestRunAllSteps(t *testing.T) {
	r, out := newRunner(t)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v\n%s", err, out)
	}
	got := out.String()

	for _, s := range r.Steps() {
		if !strings.Contains(got, "== "+s.Name+"\n") {
			t.Errorf("output is missing step %s", s.Name)
		}
	}

	wants := []string{
		"index heima deleted: false",
		"index item deleted: true",
		"saved 5 items",
		"updated Item{id=1, title='小米手机7-update', category=' 手机-update', brand='小米-update', price=3499.00",
		"华为，共2台\n平均售价：3649\n",
		"小米-update，共1台\n平均售价：3499\n",
		"锤子，共1台\n平均售价：3699\n",
	}
	for _, w := range wants {
		if !strings.Contains(got, w) {
			t.Errorf("output is missing %q", w)
		}
	}
}

func TestPagingAfterUpdate(t *testing.T) {
	r, out := newRunner(t)
	steps := []string{"create-index", "add-documents", "update", "paging"}
	if err := r.Run(context.Background(), steps...); err != nil {
		t.Fatalf("Run: %v", err)
	}

	section := out.String()[strings.Index(out.String(), "== paging\n")+len("== paging\n"):]
	lines := strings.Split(strings.TrimSpace(section), "\n")
	// total, pages, size, number, then the items of page 0
	if len(lines) != 7 || lines[0] != "4" || lines[1] != "2" || lines[2] != "3" || lines[3] != "0" {
		t.Errorf("paging output:\n%s", section)
	}
}

func TestFindByPriceBetweenStep(t *testing.T) {
	r, out := newRunner(t)
	if err := r.Run(context.Background(), "create-index", "add-documents", "find-by-price-between"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	section := out.String()[strings.Index(out.String(), "== find-by-price-between"):]
	if !strings.Contains(section, "id=1,") || !strings.Contains(section, "id=5,") || strings.Contains(section, "id=3,") {
		t.Errorf("find-by-price-between output:\n%s", section)
	}
}

func TestRunUnknownStep(t *testing.T) {
	r, out := newRunner(t)
	if err := r.Run(context.Background(), "create-index", "drop-everything"); err == nil {
		t.Fatal("expected an error for an unknown step")
	}
	if out.Len() != 0 {
		t.Errorf("no step should run, got:\n%s", out)
	}
}
