// Package delivery provides best-effort background delivery of booking
// payloads when the primary readable exchange with the backend fails. The
// customer has already been told the booking went through by the time a task
// lands here; the queue only improves the odds that it actually did.
package delivery

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskBestEffortSubmit re-posts an assembled booking payload to the backend.
const TaskBestEffortSubmit = "booking.submit.besteffort"

// BestEffortSubmitPayload is the queued task body.
type BestEffortSubmitPayload struct {
	SessionID string                 `json:"sessionId"`
	Payload   map[string]interface{} `json:"payload"`
}

// NewBestEffortSubmitTask builds the asynq task for a payload.
func NewBestEffortSubmitTask(payload BestEffortSubmitPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBestEffortSubmit, data, asynq.MaxRetry(5)), nil
}

// ParseBestEffortSubmitPayload decodes a queued task body.
func ParseBestEffortSubmitPayload(task *asynq.Task) (BestEffortSubmitPayload, error) {
	var payload BestEffortSubmitPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return BestEffortSubmitPayload{}, err
	}
	return payload, nil
}
