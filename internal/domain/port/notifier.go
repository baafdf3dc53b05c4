package port

import "context"

// DeadLetterNotifier alerts operators when a message is dropped to a DLQ.
type DeadLetterNotifier interface {
	NotifyDeadLetter(ctx context.Context, queue, reason string, body []byte) error
}
