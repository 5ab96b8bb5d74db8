package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pathweaver/pathweaver/internal/logger"
)

// RawGenerateFunc is the host's own generation primitive. It cannot be
// cancelled once started.
type RawGenerateFunc func(system, user string) (string, error)

// Host wraps the host application's generation pipeline. Because the
// underlying call is not cancellable, Generate races it against the
// context; a late result is discarded.
type Host struct {
	raw RawGenerateFunc
}

// NewHost creates a host backend around raw.
func NewHost(raw RawGenerateFunc) (*Host, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: no host generation endpoint", ErrUnconfigured)
	}
	return &Host{raw: raw}, nil
}

func (h *Host) Name() string { return "host" }

func (h *Host) Generate(ctx context.Context, req Request) (string, error) {
	type outcome struct {
		text string
		err  error
	}

	// Buffered so a late completion does not leak the goroutine.
	ch := make(chan outcome, 1)
	go func() {
		text, err := h.raw(req.System, req.User)
		ch <- outcome{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		logger.Debug("Host generation abandoned, result will be discarded")
		return "", ErrCancelled
	case out := <-ch:
		if out.err != nil {
			return "", fmt.Errorf("host generation: %w", out.err)
		}
		return out.text, nil
	}
}

// HTTPRawGenerator returns a RawGenerateFunc that posts the prompt to
// the host's generation callback. The callback accepts
// {"system": ..., "prompt": ...} and responds with {"result": ...}.
func HTTPRawGenerator(callbackURL string) RawGenerateFunc {
	client := &http.Client{Timeout: 5 * time.Minute}

	return func(system, user string) (string, error) {
		body, err := json.Marshal(map[string]string{
			"system": system,
			"prompt": user,
		})
		if err != nil {
			return "", err
		}

		resp, err := client.Post(callbackURL, "application/json", bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", fmt.Errorf("host callback error: %d", resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", err
		}
		var payload struct {
			Result string `json:"result"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return "", fmt.Errorf("host callback returned invalid JSON: %w", err)
		}
		return payload.Result, nil
	}
}
