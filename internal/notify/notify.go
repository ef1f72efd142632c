// Package notify runs digest sweeps: for every due user it aggregates the
// active holdings into a report and hands it to the configured dispatcher.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"github.com/leonid6372/crypto-tracker/internal/trackererrs"
	"github.com/leonid6372/crypto-tracker/internal/valuation"
	"github.com/leonid6372/crypto-tracker/pkg/errs"
	"github.com/leonid6372/crypto-tracker/pkg/log"
	"go.uber.org/zap"
)

type Service struct {
	holdings   domain.HoldingsRepository
	users      domain.UsersRepository
	dispatcher domain.Dispatcher
	now        func() time.Time
}

// Result counts the outcome of one sweep. Skipped users had no active holdings.
type Result struct {
	Kind    domain.DigestKind `json:"kind"`
	Sent    int               `json:"sent"`
	Skipped int               `json:"skipped"`
	Failed  int               `json:"failed"`
}

func NewService(holdings domain.HoldingsRepository, users domain.UsersRepository, dispatcher domain.Dispatcher) *Service {
	return &Service{
		holdings:   holdings,
		users:      users,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// Sweep loads the users currently opted in to kind digests and runs the digest
// for them. Preferences are re-read on every call.
func (s *Service) Sweep(ctx context.Context, kind domain.DigestKind) (*Result, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown digest kind %q", kind)
	}

	users, err := s.users.FindUsersWithPreference(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("load %s digest recipients: %w", kind, err)
	}

	return s.RunDigest(ctx, kind, users)
}

// RunDigest sends a kind digest to each user with at least one active
// holding. A failure for one user is logged and counted, and the sweep moves
// on. The returned error is non-nil only when kind is invalid.
func (s *Service) RunDigest(ctx context.Context, kind domain.DigestKind, users []*domain.User) (*Result, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown digest kind %q", kind)
	}

	start := time.Now()
	res := &Result{Kind: kind}

	for _, user := range users {
		outcome, err := s.digestUser(ctx, kind, user)
		switch {
		case err != nil:
			res.Failed++
			log.Error("failed to send digest",
				zap.String("kind", kind.String()),
				zap.Int64("userID", user.ID),
				zap.String("email", user.Email),
				zap.Error(err),
				zap.String("stack", errs.Stack(err)),
			)
		case outcome == digestSent:
			res.Sent++
		default:
			if outcome == digestUnreachable {
				log.Warn("no channel reached user, digest skipped",
					zap.String("kind", kind.String()),
					zap.Int64("userID", user.ID),
				)
			}
			res.Skipped++
		}
	}

	log.Info("digest sweep complete",
		zap.String("kind", kind.String()),
		zap.Int("due", len(users)),
		zap.Int("sent", res.Sent),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Duration("elapsed", time.Since(start)),
	)

	return res, nil
}

// SendTestDigest runs the daily digest for one user regardless of their
// preference flags and reports the outcome to the caller. A non-empty
// portfolio that no channel could deliver is an ErrDispatchFailure.
func (s *Service) SendTestDigest(ctx context.Context, userID int64) (*Result, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := &Result{Kind: domain.DigestDaily}

	outcome, err := s.digestUser(ctx, domain.DigestDaily, user)
	if err != nil {
		res.Failed++
		return res, err
	}

	switch outcome {
	case digestSent:
		res.Sent++
	case digestUnreachable:
		res.Failed++
		return res, fmt.Errorf("%w: no channel reached user %d", trackererrs.ErrDispatchFailure, user.ID)
	default:
		res.Skipped++
	}

	return res, nil
}

type digestOutcome int

const (
	digestEmpty digestOutcome = iota
	digestUnreachable
	digestSent
)

func (s *Service) digestUser(ctx context.Context, kind domain.DigestKind, user *domain.User) (digestOutcome, error) {
	holdings, err := s.holdings.FindActive(ctx, domain.ScopeUser(user.ID))
	if err != nil {
		return digestEmpty, fmt.Errorf("%w: load holdings: %w", trackererrs.ErrDispatchFailure, err)
	}

	if len(holdings) == 0 {
		log.Debug("no active holdings, digest skipped",
			zap.String("kind", kind.String()),
			zap.Int64("userID", user.ID),
		)
		return digestEmpty, nil
	}

	report := valuation.NewReport(holdings, s.now())

	delivered, err := s.dispatcher.Send(ctx, user, report, kind)
	if err != nil {
		if errors.Is(err, trackererrs.ErrDispatchFailure) {
			return digestEmpty, err
		}
		return digestEmpty, fmt.Errorf("%w: %w", trackererrs.ErrDispatchFailure, err)
	}

	if !delivered {
		return digestUnreachable, nil
	}

	return digestSent, nil
}
