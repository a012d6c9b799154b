// Package audit records mutating actions as a best-effort side channel.
// Events are enqueued without blocking the request path and written by a
// background goroutine; a slow or failing audit store never degrades the
// operation it records.
package audit
