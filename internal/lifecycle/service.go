package lifecycle

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"subscription-engine/internal/domain/access"
	"subscription-engine/internal/domain/subscriptions"
	"subscription-engine/internal/logger"
	"subscription-engine/internal/metrics"

	"github.com/microcosm-cc/bluemonday"
)

const (
	defaultMaxPauseDays = 90
	maxReasonRunes      = 1000
)

type Deps struct {
	Records  Records
	Configs  Configs
	Accounts Accounts
	Feedback FeedbackStore
	Recipes  RecipeCounter
	Provider Provider
}

// Service hosts every subscription mutation. Each operation reads the
// record, checks its preconditions, calls the provider when needed and only
// then writes the fields it owns.
type Service struct {
	Deps

	resolver *access.Resolver
	now      func() time.Time
	maxPause time.Duration
	appURL   string
	log      *slog.Logger
	metrics  *metrics.Metrics
	text     *bluemonday.Policy
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMaxPauseDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.maxPause = time.Duration(days) * 24 * time.Hour
		}
	}
}

// WithAppURL sets the front-end origin used for checkout and portal redirects.
func WithAppURL(url string) Option {
	return func(s *Service) { s.appURL = strings.TrimRight(url, "/") }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithResolver(r *access.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

func New(d Deps, opts ...Option) *Service {
	s := &Service{
		Deps:     d,
		resolver: access.NewResolver(),
		now:      time.Now,
		maxPause: defaultMaxPauseDays * 24 * time.Hour,
		appURL:   "http://localhost:5173",
		log:      slog.Default(),
		text:     bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// observe logs and counts the outcome of one operation.
func (s *Service) observe(ctx context.Context, op string, accountID uint, err error) {
	attrs := []any{logger.Component("lifecycle"), logger.Operation(op), logger.AccountID(accountID)}
	switch {
	case err == nil:
		s.metrics.Operation(op, metrics.OutcomeSuccess)
		s.log.InfoContext(ctx, "subscription operation succeeded", attrs...)
	case errors.Is(err, ErrPrecondition), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrConflict):
		s.metrics.Operation(op, metrics.OutcomeRejected)
		s.log.WarnContext(ctx, "subscription operation rejected", append(attrs, logger.Error(err))...)
	default:
		s.metrics.Operation(op, metrics.OutcomeError)
		s.log.ErrorContext(ctx, "subscription operation failed", append(attrs, logger.Error(err))...)
	}
}

// cleanText strips markup and bounds free text supplied by users and admins.
// The result is plain text, so entities the sanitizer produced are decoded.
func (s *Service) cleanText(in string) string {
	out := strings.TrimSpace(html.UnescapeString(s.text.Sanitize(in)))
	if utf8.RuneCountInString(out) > maxReasonRunes {
		out = string([]rune(out)[:maxReasonRunes])
	}
	return out
}

func (s *Service) optionalText(in *string) any {
	if in == nil {
		return nil
	}
	if out := s.cleanText(*in); out != "" {
		return out
	}
	return nil
}

func (s *Service) saveFeedback(ctx context.Context, accountID uint, kind subscriptions.FeedbackKind, reason *string) {
	if s.Feedback == nil {
		return
	}
	fb := &subscriptions.CancellationFeedback{AccountID: accountID, Kind: kind}
	if reason != nil {
		fb.Reason = s.cleanText(*reason)
	}
	if err := s.Feedback.Create(ctx, fb); err != nil {
		s.log.WarnContext(ctx, "could not store cancellation feedback",
			logger.Component("lifecycle"), logger.AccountID(accountID), logger.Error(err))
	}
}
