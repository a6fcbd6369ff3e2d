package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/crucial707/hci-dispatch/internal/models"
)

// Sender delivers one template. Rendering, recipient resolution, and retries
// below this interface belong to the relay, not the dispatcher.
type Sender interface {
	Send(ctx context.Context, t *models.Template) error
}

// RelaySender POSTs the template to a delivery relay endpoint.
type RelaySender struct {
	URL    string
	Client *http.Client
}

// NewRelaySender returns a RelaySender with a bounded request timeout.
func NewRelaySender(url string) *RelaySender {
	return &RelaySender{
		URL:    url,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *RelaySender) Send(ctx context.Context, t *models.Template) error {
	payload, err := json.Marshal(map[string]interface{}{
		"template_id": t.ID,
		"name":        t.Name,
		"subject":     t.Subject,
		"body":        t.Body,
	})
	if err != nil {
		return fmt.Errorf("encode template %d: %w", t.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("relay request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("relay returned status %d for template %d", resp.StatusCode, t.ID)
	}
	return nil
}

// LogSender logs instead of delivering. Used when no relay is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, t *models.Template) error {
	s.Logger.Info("dry-run send", "template_id", t.ID, "name", t.Name)
	return nil
}
