package utils

import (
	"net/http"
	"time"
)

// NewHTTPClient returns the shared client used for calls to other services.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
	}
}
