package delivery

import (
	"context"

	"clearaway_backend/platform/config"
	"clearaway_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Submitter is the backend gateway operation the worker needs.
type Submitter interface {
	Submit(ctx context.Context, payload map[string]interface{}) error
}

// Worker processes best-effort delivery tasks. Outcomes are logged only:
// by the time a task runs, the customer has already seen a success screen.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	submitter Submitter
	log       *logger.Logger
}

// NewWorker creates the delivery worker.
func NewWorker(cfg config.DeliveryConfig, submitter Submitter, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetDeliveryQueueName()
	if queue == "" {
		queue = "default"
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 4,
		Queues:      map[string]int{queue: 1},
	})

	w := &Worker{
		server:    server,
		mux:       asynq.NewServeMux(),
		submitter: submitter,
		log:       log,
	}
	w.mux.HandleFunc(TaskBestEffortSubmit, w.handleBestEffortSubmit)
	return w, nil
}

// Run blocks processing tasks until Shutdown is called.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Shutdown stops the worker gracefully.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleBestEffortSubmit(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseBestEffortSubmitPayload(task)
	if err != nil {
		w.log.Error("undecodable delivery task", "error", err)
		return nil // retrying cannot help
	}

	if err := w.submitter.Submit(ctx, payload.Payload); err != nil {
		w.log.SubmissionEvent(payload.SessionID, false, "queue", err)
		return err // let asynq retry
	}

	w.log.SubmissionEvent(payload.SessionID, true, "queue", nil)
	return nil
}
