package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"stylus/internal/config"
)

const userAgent = "Stylus/0.1.0"

// Event identifies a workflow milestone that may produce a notification.
type Event string

// Workflow events published by stages and the queue manager. Events without
// a matching formatter are suppressed silently so callers never need to
// consult notification settings themselves.
const (
	EventTrackResolved     Event = "track_resolved"
	EventMatchFound        Event = "match_found"
	EventDownloadStarted   Event = "download_started"
	EventDownloadCompleted Event = "download_completed"
	EventTrackOrganized    Event = "track_organized"
	EventReviewRequired    Event = "review_required"
	EventQueueStarted      Event = "queue_started"
	EventQueueCompleted    Event = "queue_completed"
	EventError             Event = "error"
	EventTest              Event = "test"
)

// Payload carries event-specific fields consumed by the formatters.
type Payload map[string]any

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		settings:    cfg.Notifications,
		dedupWindow: time.Duration(cfg.Notifications.DedupWindowSeconds) * time.Second,
		lastSent:    make(map[string]time.Time),
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	settings    config.Notifications
	dedupWindow time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// Publish formats and delivers the event. Events disabled in configuration,
// events with no formatter, and repeats inside the dedup window return nil
// without contacting ntfy.
func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	data, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	if n.suppressDuplicate(event, data.body) {
		return nil
	}
	return n.send(ctx, data)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventMatchFound:
		if !n.settings.Found {
			return message{}, false
		}
		body := fmt.Sprintf("🎯 Match found: %s", payloadString(payload, "track"))
		if filename := payloadString(payload, "filename"); filename != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, filename)
		}
		if score := payloadString(payload, "score"); score != "" {
			body = fmt.Sprintf("%s (score %s)", body, score)
		}
		return message{
			title: "Stylus - Match Found",
			body:  body,
			tags:  []string{"stylus", "search", "found"},
		}, true
	case EventDownloadCompleted:
		if !n.settings.Downloaded {
			return message{}, false
		}
		body := fmt.Sprintf("⬇️ Downloaded: %s", payloadString(payload, "track"))
		if filename := payloadString(payload, "filename"); filename != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, filename)
		}
		return message{
			title: "Stylus - Download Complete",
			body:  body,
			tags:  []string{"stylus", "download", "completed"},
		}, true
	case EventTrackOrganized:
		if !n.settings.Organized {
			return message{}, false
		}
		body := fmt.Sprintf("✅ Added to library: %s", payloadString(payload, "track"))
		if finalFile := payloadString(payload, "finalFile"); finalFile != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, finalFile)
		}
		return message{
			title: "Stylus - Library Updated",
			body:  body,
			tags:  []string{"stylus", "library", "added"},
		}, true
	case EventReviewRequired:
		if !n.settings.Review {
			return message{}, false
		}
		label := payloadString(payload, "track")
		if label == "" {
			label = payloadString(payload, "query")
		}
		body := fmt.Sprintf("⚠️ Review needed: %s", label)
		if reason := payloadString(payload, "reason"); reason != "" {
			body = fmt.Sprintf("%s\nReason: %s", body, reason)
		}
		return message{
			title:    "Stylus - Review Required",
			body:     body,
			tags:     []string{"stylus", "review", "attention"},
			priority: "high",
		}, true
	case EventError:
		if !n.settings.Errors {
			return message{}, false
		}
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if label := payloadString(payload, "context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if detail := payloadString(payload, "error"); detail != "" {
			builder.WriteString(detail)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Stylus - Error",
			body:     builder.String(),
			tags:     []string{"stylus", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Stylus - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"stylus", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

// suppressDuplicate reports whether an identical message was sent within the
// dedup window. Retried stages re-emit the same milestone events; collapsing
// repeats keeps the topic readable.
func (n *ntfyService) suppressDuplicate(event Event, body string) bool {
	if n.dedupWindow <= 0 {
		return false
	}
	key := string(event) + "|" + body
	now := time.Now()

	n.mu.Lock()
	defer n.mu.Unlock()
	if sent, ok := n.lastSent[key]; ok && now.Sub(sent) < n.dedupWindow {
		return true
	}
	for k, sent := range n.lastSent {
		if now.Sub(sent) >= n.dedupWindow {
			delete(n.lastSent, k)
		}
	}
	n.lastSent[key] = now
	return false
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func payloadString(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
