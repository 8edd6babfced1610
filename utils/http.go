// utils/http.go
package utils

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient is shared by the save channels, beacon, sync and config loader.
// Per-request deadlines come from the caller's context.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// DrainClose always drains and closes the body to keep connections reusable.
func DrainClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// ReadErrorBody reads at most 1KB of an error response.
func ReadErrorBody(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return fmt.Sprintf("<unreadable body: %v>", err)
	}
	return string(body)
}

// IsSuccess reports a 2xx status.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
