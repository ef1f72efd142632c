package domain

import "context"

// Dispatcher delivers a digest report to a user over some channel.
// Rendering is the dispatcher's concern. delivered is false when the channel
// has no way to reach the user, e.g. no email address on file.
type Dispatcher interface {
	Send(ctx context.Context, user *User, report *Report, kind DigestKind) (delivered bool, err error)
}
