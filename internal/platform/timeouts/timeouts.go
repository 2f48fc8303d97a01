// Package timeouts defines shared timeout constants used across the service.
// Centralizing these values prevents drift between call sites and makes the
// durations discoverable.
package timeouts

import "time"

// PlatformCall caps the wait time for a single chat-platform gateway call.
const PlatformCall = 5 * time.Second

// StorageCall caps the wait time for a single persistence call.
const StorageCall = 2 * time.Second

// Shutdown limits how long the runtime waits for in-flight work during
// graceful shutdown.
const Shutdown = 5 * time.Second
