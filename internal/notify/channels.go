package notify

import (
	"context"

	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"go.uber.org/multierr"
)

// Channels delivers a report over every channel in order. All channels are
// attempted; their errors are combined. The report counts as delivered when
// at least one channel reached the user.
type Channels []domain.Dispatcher

func (c Channels) Send(ctx context.Context, user *domain.User, report *domain.Report, kind domain.DigestKind) (bool, error) {
	var (
		delivered bool
		err       error
	)

	for _, ch := range c {
		ok, sendErr := ch.Send(ctx, user, report, kind)
		delivered = delivered || ok
		err = multierr.Append(err, sendErr)
	}

	return delivered, err
}
