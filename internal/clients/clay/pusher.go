// Package clay implements the webhook pusher for lead exports.
package clay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/leadsourcer/leadsourcer/internal/services"
)

// Pusher delivers lead payloads to a webhook endpoint. The worker owns the
// rate limiting between sends; the pusher just performs one POST.
type Pusher struct {
	client *http.Client
}

var _ services.Pusher = (*Pusher)(nil)

// New creates a new webhook pusher instance
func New() *Pusher {
	return &Pusher{client: &http.Client{Timeout: 15 * time.Second}}
}

// Push POSTs one payload. A non-2xx response or transport error reports
// failure; the HTTP status is 0 when the request never reached the receiver.
func (p *Pusher) Push(ctx context.Context, url string, payload services.LeadPayload) (bool, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return false, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return false, 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, resp.StatusCode, fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return true, resp.StatusCode, nil
}
