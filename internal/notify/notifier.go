// Package notify delivers out-of-band messages to users, currently only
// password-reset email.
package notify

import "context"

// Notifier sends a message to a single recipient. Implementations must not
// retry internally; a returned error means the message was not delivered and
// the caller decides how to roll back.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}
