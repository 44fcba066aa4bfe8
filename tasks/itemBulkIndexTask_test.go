package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"elasticsearch-demo-backend/db/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type fakeSaver struct {
	saveAllFn func(ctx context.Context, items []models.Item) ([]models.Item, error)
}

func (f *fakeSaver) SaveAll(ctx context.Context, items []models.Item) ([]models.Item, error) {
	return f.saveAllFn(ctx, items)
}

func TestNewItemBulkIndexTask(t *testing.T) {
	items := []models.Item{models.NewItem(1, "小米手机7", "手机", "小米", 3299, "")}
	task, id, err := NewItemBulkIndexTask(items)
	if err != nil {
		t.Fatalf("NewItemBulkIndexTask: %v", err)
	}
	if id == "" || task.Type() != TypeItemBulkIndex {
		t.Errorf("task = %s / %q", task.Type(), id)
	}

	var p ItemBulkIndexPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(p.Items) != 1 || p.Items[0].Title != "小米手机7" || !p.Items[0].Price.Equal(items[0].Price) {
		t.Errorf("payload = %+v", p)
	}

	_, other, _ := NewItemBulkIndexTask(items)
	if other == id {
		t.Error("task ids should be unique")
	}
}

func TestProcessTaskSavesAndNotifies(t *testing.T) {
	var saved []models.Item
	saver := &fakeSaver{saveAllFn: func(_ context.Context, items []models.Item) ([]models.Item, error) {
		saved = items
		return items, nil
	}}
	notified := 0
	h := NewItemBulkIndexHandler(saver, zap.NewNop(), func(_ context.Context, batch []models.Item) { notified += len(batch) })

	task, _, _ := NewItemBulkIndexTask([]models.Item{
		models.NewItem(1, "a", "c", "b", 1, ""),
		models.NewItem(2, "b", "c", "b", 2, ""),
	})
	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if len(saved) != 2 || notified != 2 {
		t.Errorf("saved %d items, notified of %d", len(saved), notified)
	}
}

func TestProcessTaskErrors(t *testing.T) {
	boom := errors.New("cluster down")
	saver := &fakeSaver{saveAllFn: func(context.Context, []models.Item) ([]models.Item, error) {
		return nil, boom
	}}
	h := NewItemBulkIndexHandler(saver, zap.NewNop(), func(context.Context, []models.Item) {
		t.Error("onSaved must not run after a failure")
	})

	task, _, _ := NewItemBulkIndexTask([]models.Item{models.NewItem(1, "a", "c", "b", 1, "")})
	if err := h.ProcessTask(context.Background(), task); !errors.Is(err, boom) {
		t.Errorf("ProcessTask = %v, want %v", err, boom)
	}

	bad := asynq.NewTask(TypeItemBulkIndex, []byte("not json"))
	if err := h.ProcessTask(context.Background(), bad); !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("bad payload = %v, want SkipRetry", err)
	}
}

func TestProcessTaskEmptyBatch(t *testing.T) {
	saver := &fakeSaver{saveAllFn: func(context.Context, []models.Item) ([]models.Item, error) {
		t.Error("SaveAll must not be called for an empty batch")
		return nil, nil
	}}
	h := NewItemBulkIndexHandler(saver, zap.NewNop(), nil)
	task, _, _ := NewItemBulkIndexTask(nil)
	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Errorf("ProcessTask = %v", err)
	}
}
