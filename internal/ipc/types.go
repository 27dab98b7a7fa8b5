package ipc

import "stylus/internal/api"

// Queue DTOs cross the socket in their HTTP API shape; the aliases keep the
// two surfaces from drifting apart.
type (
	QueueItem        = api.QueueItem
	StageHealth      = api.StageHealth
	DependencyStatus = api.DependencyStatus
)

// StartRequest asks the daemon to begin queue processing.
type StartRequest struct{}

type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest asks the daemon to halt queue processing.
type StopRequest struct{}

type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches combined daemon, queue, and dependency status.
type StatusRequest struct{}

type StatusResponse struct {
	Running      bool               `json:"running"`
	QueueStats   map[string]int     `json:"queue_stats"`
	LastError    string             `json:"last_error"`
	LastItem     *QueueItem         `json:"last_item"`
	LockPath     string             `json:"lock_path"`
	QueueDBPath  string             `json:"queue_db_path"`
	StageHealth  []StageHealth      `json:"stage_health"`
	Dependencies []DependencyStatus `json:"dependencies"`
	PID          int                `json:"pid"`
}

// QueueListRequest lists queue items, optionally filtered by status names.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueDescribeRequest fetches one queue item by ID.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueDescribeResponse carries the item only when Found is set; a missing
// ID is not an RPC error.
type QueueDescribeResponse struct {
	Found bool      `json:"found"`
	Item  QueueItem `json:"item"`
}

// The clear and remove operations all answer with a removal count.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

type (
	QueueClearRequest           struct{}
	QueueClearFailedRequest     struct{}
	QueueClearCompletedRequest  struct{}
	QueueClearFailedResponse    = QueueClearResponse
	QueueClearCompletedResponse = QueueClearResponse
	QueueRemoveResponse         = QueueClearResponse
)

// QueueRemoveRequest deletes the named items.
type QueueRemoveRequest struct {
	IDs []int64 `json:"ids"`
}

// The reset, retry, and stop operations all answer with an update count.
type QueueResetResponse struct {
	Updated int64 `json:"updated"`
}

type (
	QueueResetRequest  struct{}
	QueueRetryResponse = QueueResetResponse
	QueueStopResponse  = QueueResetResponse
)

// QueueRetryRequest re-queues failed or review items. An empty list means
// every failed item.
type QueueRetryRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueStopRequest parks the named in-flight items. An empty list is
// rejected.
type QueueStopRequest struct {
	IDs []int64 `json:"ids"`
}

// LogTailRequest reads daemon log lines from Offset; negative Offset means
// the last Limit lines. Follow waits up to WaitMillis for new output.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// DatabaseHealthRequest fetches queue database diagnostics.
type DatabaseHealthRequest struct{}

type DatabaseHealthResponse struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	SchemaVersion    string   `json:"schema_version"`
	TableExists      bool     `json:"table_exists"`
	ColumnsPresent   []string `json:"columns_present"`
	MissingColumns   []string `json:"missing_columns"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalItems       int      `json:"total_items"`
	Error            string   `json:"error"`
}

// TestNotificationRequest publishes a test event through the configured
// notifier.
type TestNotificationRequest struct{}

type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// QueueHealthRequest fetches per-status queue counts.
type QueueHealthRequest struct{}

type QueueHealthResponse struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Review     int `json:"review"`
	Completed  int `json:"completed"`
}
