package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ward/internal/config"
)

const userAgent = "ward/0.1.0"

// Intervention is the notification view of one completed intervention.
type Intervention struct {
	Title      string
	ArtistLine string
	Tier       string
	Rule       string
	Outcome    string
	Advanced   bool
}

// Service defines the notification surface used by the daemon.
type Service interface {
	NotifyIntervention(ctx context.Context, iv Intervention) error
	NotifyCatalogError(ctx context.Context, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
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
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		interventions: cfg.Notifications.Interventions,
		catalogErrors: cfg.Notifications.CatalogErrors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	interventions bool
	catalogErrors bool
}

func (n *ntfyService) NotifyIntervention(ctx context.Context, iv Intervention) error {
	if !n.interventions {
		return nil
	}
	subject := strings.TrimSpace(iv.Title)
	if artist := strings.TrimSpace(iv.ArtistLine); artist != "" {
		subject = fmt.Sprintf("%s by %s", subject, artist)
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Blocked: %s", subject)
	if rule := strings.TrimSpace(iv.Rule); rule != "" {
		fmt.Fprintf(&builder, "\nRule: %s (%s)", rule, iv.Tier)
	}
	if iv.Outcome != "" && iv.Outcome != "confirmed" {
		fmt.Fprintf(&builder, "\nFeedback: %s", iv.Outcome)
	}
	if !iv.Advanced {
		builder.WriteString("\nPlayback was not advanced")
	}

	data := payload{
		title:   "Ward - Track Blocked",
		message: builder.String(),
		tags:    []string{"ward", "blocked", iv.Tier},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCatalogError(ctx context.Context, err error) error {
	if !n.catalogErrors {
		return nil
	}
	detail := "unknown"
	if err != nil {
		detail = strings.TrimSpace(err.Error())
	}
	data := payload{
		title:    "Ward - Catalog Refresh Failed",
		message:  fmt.Sprintf("Catalog refresh failed: %s\nUsing the cached list", detail),
		tags:     []string{"ward", "catalog", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Ward - Test",
		message:  "Notification system test",
		tags:     []string{"ward", "test"},
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
	if tags := compact(data.tags); len(tags) > 0 {
		req.Header.Set("Tags", strings.Join(tags, ","))
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

func compact(tags []string) []string {
	out := tags[:0:0]
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

type noopService struct{}

func (noopService) NotifyIntervention(context.Context, Intervention) error { return nil }
func (noopService) NotifyCatalogError(context.Context, error) error        { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
