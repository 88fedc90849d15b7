package publisher

import "context"

// Publisher represents a service for publishing newly found listings
type Publisher interface {
	// Publish publishes one encoded listing tagged with the run that found it
	Publish(ctx context.Context, runID string, message []byte) error

	// TrimStreams trims the stream to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}
