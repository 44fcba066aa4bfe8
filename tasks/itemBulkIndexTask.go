package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"elasticsearch-demo-backend/db/models"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeItemBulkIndex = "item:bulk_index"
	QueueIndexing     = "indexing"
)

type ItemBulkIndexPayload struct {
	Items []models.Item `json:"items"`
}

// NewItemBulkIndexTask wraps items in a task with a fresh id so the job can
// be looked up in the asynq inspector.
func NewItemBulkIndexTask(items []models.Item) (*asynq.Task, string, error) {
	payload, err := json.Marshal(ItemBulkIndexPayload{Items: items})
	if err != nil {
		return nil, "", fmt.Errorf("encode %s payload: %w", TypeItemBulkIndex, err)
	}
	id := uuid.NewString()
	task := asynq.NewTask(TypeItemBulkIndex, payload,
		asynq.TaskID(id),
		asynq.Queue(QueueIndexing),
		asynq.MaxRetry(3),
	)
	return task, id, nil
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ItemSaver persists a batch of items.
type ItemSaver interface {
	SaveAll(ctx context.Context, items []models.Item) ([]models.Item, error)
}

type ItemBulkIndexHandler struct {
	saver   ItemSaver
	logger  *zap.Logger
	onSaved func(ctx context.Context, saved []models.Item)
}

// NewItemBulkIndexHandler builds the worker side. onSaved, when set, runs
// after every successful batch.
func NewItemBulkIndexHandler(saver ItemSaver, logger *zap.Logger, onSaved func(ctx context.Context, saved []models.Item)) *ItemBulkIndexHandler {
	return &ItemBulkIndexHandler{saver: saver, logger: logger, onSaved: onSaved}
}

func (h *ItemBulkIndexHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p ItemBulkIndexPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		// retrying cannot fix a bad payload
		return fmt.Errorf("decode %s payload: %v: %w", TypeItemBulkIndex, err, asynq.SkipRetry)
	}
	if len(p.Items) == 0 {
		return nil
	}

	saved, err := h.saver.SaveAll(ctx, p.Items)
	if err != nil {
		h.logger.Error("Bulk index task failed", zap.Int("items", len(p.Items)), zap.Error(err))
		return err
	}
	h.logger.Info("Bulk index task done", zap.Int("items", len(p.Items)))

	if h.onSaved != nil {
		h.onSaved(ctx, saved)
	}
	return nil
}

func NewServeMux(bulk *ItemBulkIndexHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeItemBulkIndex, bulk)
	return mux
}

// NewWorker returns a server consuming the indexing queue.
func NewWorker(opt asynq.RedisConnOpt, concurrency int) *asynq.Server {
	return asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueIndexing: 1,
		},
	})
}
