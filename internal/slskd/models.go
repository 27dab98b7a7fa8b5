package slskd

import (
	"strings"
	"time"
)

// SearchState mirrors the slskd search resource. Responses are only populated
// when the state is fetched with includeResponses=true.
type SearchState struct {
	ID            string     `json:"id"`
	SearchText    string     `json:"searchText"`
	State         string     `json:"state"`
	StartedAt     time.Time  `json:"startedAt"`
	FileCount     int        `json:"fileCount"`
	ResponseCount int        `json:"responseCount"`
	IsComplete    bool       `json:"isComplete"`
	Responses     []Response `json:"responses,omitempty"`
}

// Response is one peer's answer to a search, carrying uploader context that
// applies to every file it lists.
type Response struct {
	Username          string `json:"username"`
	HasFreeUploadSlot bool   `json:"hasFreeUploadSlot"`
	UploadSpeed       int64  `json:"uploadSpeed"`
	QueueLength       int    `json:"queueLength"`
	FileCount         int    `json:"fileCount"`
	Files             []File `json:"files"`
}

// File is a single shared file inside a search response. Audio attributes are
// optional; uncompressed or badly tagged shares omit them.
type File struct {
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	BitRate    int    `json:"bitRate,omitempty"`
	BitDepth   int    `json:"bitDepth,omitempty"`
	SampleRate int    `json:"sampleRate,omitempty"`
	Length     int    `json:"length,omitempty"`
}

// BaseName extracts the file name from the full remote path. Soulseek paths
// normally use backslashes regardless of the uploader's platform, but some
// clients share forward-slash paths.
func (f File) BaseName() string {
	name := f.Filename
	if idx := strings.LastIndexAny(name, "\\/"); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

// Extension returns the lowercase file extension without the dot.
func (f File) Extension() string {
	base := f.BaseName()
	if idx := strings.LastIndex(base, "."); idx >= 0 {
		return strings.ToLower(base[idx+1:])
	}
	return ""
}

// DownloadRequest names a remote file to enqueue.
type DownloadRequest struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// DownloadQueue is the per-user transfer listing returned by slskd.
type DownloadQueue struct {
	Username    string              `json:"username"`
	Directories []DownloadDirectory `json:"directories"`
}

// DownloadDirectory groups queued transfers by remote directory.
type DownloadDirectory struct {
	Directory string     `json:"directory"`
	FileCount int        `json:"fileCount"`
	Files     []Transfer `json:"files"`
}

// Transfer is a single queued or running download.
type Transfer struct {
	ID               string  `json:"id"`
	Username         string  `json:"username"`
	Filename         string  `json:"filename"`
	Size             int64   `json:"size"`
	State            string  `json:"state"`
	BytesTransferred int64   `json:"bytesTransferred"`
	PercentComplete  float64 `json:"percentComplete"`
	AverageSpeed     float64 `json:"averageSpeed"`
}

// Completed reports whether the transfer reached a successful terminal state.
// slskd reports comma-separated states like "Completed, Succeeded"; failure
// markers win because "Completed, Errored" is terminal but not a success.
func (t Transfer) Completed() bool {
	if t.Failed() {
		return false
	}
	state := strings.ToLower(t.State)
	return strings.Contains(state, "completed") || strings.Contains(state, "succeeded")
}

// Failed reports whether the transfer reached a failed terminal state.
func (t Transfer) Failed() bool {
	state := strings.ToLower(t.State)
	for _, marker := range []string{"errored", "rejected", "timedout", "cancelled"} {
		if strings.Contains(state, marker) {
			return true
		}
	}
	return false
}

// Active reports whether the transfer is still queued or moving.
func (t Transfer) Active() bool {
	return !t.Completed() && !t.Failed()
}

// FindTransfer locates a transfer by its remote filename.
func (q *DownloadQueue) FindTransfer(filename string) (Transfer, bool) {
	if q == nil {
		return Transfer{}, false
	}
	for _, dir := range q.Directories {
		for _, transfer := range dir.Files {
			if transfer.Filename == filename {
				return transfer, true
			}
		}
	}
	return Transfer{}, false
}
