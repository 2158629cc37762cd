package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cineboard/internal/config"
)

const userAgent = "CineBoard/0.1.0"

// Service defines the notification surface exposed to the orchestrator.
type Service interface {
	NotifyStoryboardReady(ctx context.Context, title string, completed, failed int, elapsed time.Duration) error
	NotifyAnalysisFailed(ctx context.Context, cause error) error
	TestNotification(ctx context.Context) error
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
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyStoryboardReady(ctx context.Context, title string, completed, failed int, elapsed time.Duration) error {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled Project"
	}
	elapsed = elapsed.Round(time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	data := payload{
		title:   "CineBoard - Storyboard Ready",
		message: fmt.Sprintf("🎬 %s: %d scenes generated in %s", title, completed, elapsed),
		tags:    []string{"cineboard", "storyboard", "completed"},
	}
	if failed > 0 {
		data.title = "CineBoard - Storyboard Ready (with failures)"
		data.message = fmt.Sprintf("🎬 %s: %d generated, %d failed in %s\nRetry failed scenes with 'cineboard retry <index>'", title, completed, failed, elapsed)
		data.tags = []string{"cineboard", "storyboard", "warning"}
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAnalysisFailed(ctx context.Context, cause error) error {
	var builder strings.Builder
	builder.WriteString("❌ Story analysis failed: ")
	if cause != nil {
		builder.WriteString(strings.TrimSpace(cause.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "CineBoard - Analysis Failed",
		message:  builder.String(),
		tags:     []string{"cineboard", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "CineBoard - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"cineboard", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
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

type noopService struct{}

func (noopService) NotifyStoryboardReady(context.Context, string, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyAnalysisFailed(context.Context, error) error { return nil }
func (noopService) TestNotification(context.Context) error            { return nil }
