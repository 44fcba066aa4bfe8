package services

import (
	"context"
	"errors"
	"fmt"

	"elasticsearch-demo-backend/db/models"
	item_repositories "elasticsearch-demo-backend/items/repositories"
	"elasticsearch-demo-backend/tasks"
	"elasticsearch-demo-backend/websocket"

	"go.uber.org/zap"
)

var ErrAsyncUnavailable = errors.New("background indexing is not configured")

// Publisher is satisfied by *websocket.Hub.
type Publisher interface {
	Publish(index string, eventType websocket.EventType, payload interface{})
}

// ItemService wraps item writes so cached statistics stay in step with the
// index.
type ItemService struct {
	repo     item_repositories.ItemRepository
	stats    *BrandStatisticsService
	enqueuer tasks.Enqueuer
	events   Publisher
	logger   *zap.Logger
}

// NewItemService builds the service. enqueuer may be nil, which disables
// SaveAllAsync. events may be nil, which turns off change notifications.
func NewItemService(repo item_repositories.ItemRepository, stats *BrandStatisticsService, enqueuer tasks.Enqueuer, events Publisher, logger *zap.Logger) *ItemService {
	return &ItemService{repo: repo, stats: stats, enqueuer: enqueuer, events: events, logger: logger}
}

func (s *ItemService) publish(eventType websocket.EventType, payload interface{}) {
	if s.events != nil {
		s.events.Publish(models.ItemIndex.Name, eventType, payload)
	}
}

func itemIDs(items []models.Item) []int64 {
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

// afterBulk runs once a batch is indexed, synchronously or by the worker.
func (s *ItemService) afterBulk(ctx context.Context, saved []models.Item) {
	s.stats.Invalidate(ctx)
	s.publish(websocket.EventItemsSaved, map[string]interface{}{"count": len(saved), "ids": itemIDs(saved)})
}

func (s *ItemService) Save(ctx context.Context, item models.Item) (models.Item, error) {
	saved, err := s.repo.Save(ctx, item)
	if err != nil {
		return saved, err
	}
	s.stats.Invalidate(ctx)
	s.publish(websocket.EventItemSaved, saved)
	return saved, nil
}

func (s *ItemService) SaveAll(ctx context.Context, items []models.Item) ([]models.Item, error) {
	saved, err := s.repo.SaveAll(ctx, items)
	if err != nil {
		return nil, err
	}
	s.afterBulk(ctx, saved)
	return saved, nil
}

// SaveAllAsync queues the batch for the worker and returns the task id.
func (s *ItemService) SaveAllAsync(ctx context.Context, items []models.Item) (string, error) {
	if s.enqueuer == nil {
		return "", ErrAsyncUnavailable
	}
	task, id, err := tasks.NewItemBulkIndexTask(items)
	if err != nil {
		return "", err
	}
	if _, err := s.enqueuer.EnqueueContext(ctx, task); err != nil {
		return "", fmt.Errorf("enqueue %s: %w", tasks.TypeItemBulkIndex, err)
	}
	s.logger.Info("Bulk index queued", zap.String("task_id", id), zap.Int("items", len(items)))
	return id, nil
}

func (s *ItemService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.stats.Invalidate(ctx)
	s.publish(websocket.EventItemDeleted, map[string]interface{}{"id": id})
	return nil
}

// DeleteIndex drops the item index and reports whether it existed.
func (s *ItemService) DeleteIndex(ctx context.Context) (bool, error) {
	deleted, err := s.repo.DeleteIndex(ctx)
	if err != nil {
		return false, err
	}
	s.stats.Invalidate(ctx)
	if deleted {
		s.publish(websocket.EventIndexDeleted, nil)
	}
	return deleted, nil
}

// BulkIndexHandler is the worker side of SaveAllAsync.
func (s *ItemService) BulkIndexHandler() *tasks.ItemBulkIndexHandler {
	return tasks.NewItemBulkIndexHandler(s.repo, s.logger, s.afterBulk)
}
