package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"inflow/internal/models"
)

const (
	DefaultReferer = "https://inflow.local"
	DefaultTitle   = "Inflow"

	readBufferSize = 32 * 1024
)

// Streamer performs upstream chat completion calls. It keeps no state
// between calls and never retries.
type Streamer struct {
	Client  *http.Client
	Referer string
	Title   string
}

func NewStreamer(client *http.Client) *Streamer {
	if client == nil {
		client = &http.Client{}
	}
	return &Streamer{Client: client, Referer: DefaultReferer, Title: DefaultTitle}
}

// EmitFunc delivers one envelope to the consumer. An error means the
// consumer is gone and the stream should stop.
type EmitFunc func(env models.Envelope) error

// Stats describes a finished stream for logging.
type Stats struct {
	Status int
	Chunks int
	Bytes  int
	Failed bool
}

type completionRequest struct {
	Model    string          `json:"model"`
	Stream   bool            `json:"stream"`
	Messages json.RawMessage `json:"messages"`
}

// Stream sends payload upstream and emits zero or more chunk envelopes
// followed by exactly one done or error envelope. The returned error is
// non-nil only when emit failed.
func (s *Streamer) Stream(ctx context.Context, payload models.StreamPayload, emit EmitFunc) (Stats, error) {
	var stats Stats

	fail := func(msg string) (Stats, error) {
		stats.Failed = true
		return stats, emit(models.Envelope{Error: msg})
	}

	messages := payload.Messages
	if len(messages) == 0 {
		messages = json.RawMessage("[]")
	}
	body, err := json.Marshal(completionRequest{Model: payload.Model, Stream: true, Messages: messages})
	if err != nil {
		return fail(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, payload.APIURL, bytes.NewReader(body))
	if err != nil {
		return fail(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+payload.APIKey)
	if s.Referer != "" {
		req.Header.Set("HTTP-Referer", s.Referer)
	}
	if s.Title != "" {
		req.Header.Set("X-Title", s.Title)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return fail(err.Error())
	}
	defer resp.Body.Close()
	stats.Status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		return fail(fmt.Sprintf("API error: %d %s", resp.StatusCode, text))
	}

	dec := newUTF8Stream()
	buf := make([]byte, readBufferSize)
	for {
		n, rerr := resp.Body.Read(buf)
		atEOF := errors.Is(rerr, io.EOF)
		if n > 0 || atEOF {
			if text := dec.Decode(buf[:n], atEOF); text != "" {
				stats.Chunks++
				stats.Bytes += len(text)
				if err := emit(models.Envelope{Chunk: text}); err != nil {
					return stats, err
				}
			}
		}
		if atEOF {
			return stats, emit(models.Envelope{Done: true})
		}
		if rerr != nil {
			return fail(rerr.Error())
		}
	}
}
