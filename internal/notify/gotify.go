// Package notify pushes run summaries to a Gotify server.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jmagar/hlsgrab/internal/model"
)

// Gotify sends messages to one server. The zero value and nil are disabled.
type Gotify struct {
	URL    string
	Token  string
	Client *http.Client
}

// New returns nil (disabling notifications) if url or token are empty.
func New(serverURL, token string) *Gotify {
	if strings.TrimSpace(serverURL) == "" || strings.TrimSpace(token) == "" {
		return nil
	}
	return &Gotify{URL: serverURL, Token: token, Client: &http.Client{Timeout: 5 * time.Second}}
}

// Send posts a message.
func (g *Gotify) Send(ctx context.Context, title, message string, priority int) error {
	if g == nil {
		return nil
	}
	url := strings.TrimRight(g.URL, "/") + "/message"

	body, err := json.Marshal(map[string]any{
		"title":    title,
		"message":  message,
		"priority": priority,
	})
	if err != nil {
		return fmt.Errorf("gotify: marshal failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gotify: create request failed: %w", err)
	}
	req.Header.Set("X-Gotify-Token", g.Token)
	req.Header.Set("Content-Type", "application/json")

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("gotify: send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gotify: server returned %d", resp.StatusCode)
	}
	return nil
}

// Summary builds the title, body and priority for a finished catalog run.
func Summary(course string, batch model.BatchProgressState, failures []*model.ItemError) (string, string, int) {
	title := "hlsgrab: " + course
	if strings.TrimSpace(course) == "" {
		title = "hlsgrab"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d downloaded, %d skipped, %d failed of %d", batch.Complete, batch.Skipped, batch.Failed, batch.TotalItems)
	if !batch.StartTime.IsZero() {
		fmt.Fprintf(&b, " in %s", time.Since(batch.StartTime).Round(time.Second))
	}
	for _, f := range failures {
		fmt.Fprintf(&b, "\n#%d %s: failed while %s", f.Ordinal, f.Title, f.Phase)
	}

	priority := model.MessagePriorityStatus
	if batch.Failed > 0 {
		priority = model.MessagePriorityError
	}
	return title, b.String(), priority
}
