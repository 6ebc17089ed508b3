// Package timeouts defines shared timeout constants used across the backend.
// Centralizing these values prevents drift between layers and makes the
// durations discoverable.
package timeouts

import "time"

// StoreCall caps one persistence round trip issued on behalf of a request.
// Store operations surface a transient failure instead of hanging.
const StoreCall = 2 * time.Second

// MailSend caps one best-effort email dispatch.
const MailSend = 10 * time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
