package feed

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const maxErrorBody = 64 << 10

// FetchError is returned for a non-success HTTP status.
type FetchError struct {
	URL    string
	Status int
	// Info is the parsed JSON error body, nil when the body was not JSON.
	Info map[string]any
}

func (e *FetchError) Error() string {
	if msg, ok := e.Info["error"].(string); ok && msg != "" {
		return fmt.Sprintf("fetch %s: status %d: %s", e.URL, e.Status, msg)
	}

	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
}

func newFetchError(url string, resp *http.Response) *FetchError {
	fe := &FetchError{URL: url, Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return fe
	}

	var info map[string]any
	if json.Unmarshal(body, &info) == nil {
		fe.Info = info
	}

	return fe
}
