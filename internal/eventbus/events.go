package eventbus

// Event types published by the scheduler.
const (
	TypeBatchStarted  = "batch.started"
	TypeEntryFinished = "entry.finished"
	TypeBatchFinished = "batch.finished"
)

// BatchStarted announces a new batch run over a queue snapshot.
type BatchStarted struct {
	RunID string `json:"run_id"`
	Total int    `json:"total"`
}

// EntryFinished reports one queue entry's aggregate result.
type EntryFinished struct {
	RunID     string `json:"run_id"`
	EntryID   int64  `json:"entry_id"`
	Processed bool   `json:"processed"`
	Dead      bool   `json:"dead,omitempty"`
	Succeeded int    `json:"succeeded"`
	Platforms int    `json:"platforms"`
}

// BatchFinished carries the final report of a batch run.
type BatchFinished struct {
	RunID     string `json:"run_id"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
}
