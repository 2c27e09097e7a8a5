package maintenance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

var (
	// errors
	ErrNotFound = errors.New("maintenance settings not found")
)

type (
	Repository interface {
		// GetSettings returns ErrNotFound until the Window is first materialized.
		GetSettings(ctx context.Context) (Window, error)
		SaveSettings(ctx context.Context, w Window) (Window, error)
	}

	// Caller is the identity the request gate evaluates. Admin must be
	// derived from freshly loaded account state, never from cached claims:
	// a role can change between two requests.
	Caller struct {
		Authenticated bool
		Admin         bool
		ID            string
	}

	// Decision is a terminal gate outcome.
	Decision int

	Service interface {
		// Get returns the Window, materializing defaults on first access.
		Get(ctx context.Context) (Window, error)
		// Set persists an administrator edit. An end instant at or before
		// the start instant is shifted forward rather than rejected.
		Set(ctx context.Context, uw UpdateWindow) (Window, error)
		// Notice returns the display data for the maintenance page; best effort.
		Notice(ctx context.Context) Notice
		// Exempt reports whether the caller bypasses enforcement entirely.
		// Recomputed on every call, never memoized.
		Exempt(c Caller) bool
		// EvaluateTick is the periodic actor: load, transition, persist.
		// All errors are logged and swallowed; the tick is abandoned whole.
		EvaluateTick(ctx context.Context)
		// EvaluateRequest is the per-request actor: load, exemption check,
		// transition, persist, decide. Fails open when settings are unreadable.
		// resolve is only invoked once the settings show a configured window,
		// so the common no-window case never pays for caller resolution.
		EvaluateRequest(ctx context.Context, resolve func() Caller) Decision
	}

	service struct {
		repo    Repository
		conf    *core.Config
		logger  core.Logger
		nowFunc func() time.Time
	}
)

const (
	DecisionAllow Decision = iota
	DecisionBlock
)

var _ Service = (*service)(nil)

func NewService(repo Repository, conf *core.Config, logger core.Logger) Service {
	return &service{
		repo:    repo,
		conf:    conf,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Transition derives the next persisted Window from w at instant now.
// It is a pure function of (w, now); the background checker and the request
// gate both apply it, so the two actors cannot diverge on semantics, and
// re-applying it with no elapsed time is a no-op. A malformed timestamp is
// reported through err and the field behaves as unset.
func Transition(w Window, now time.Time, loc *time.Location) (next Window, state State, changed bool, err error) {
	next = w

	start, hasStart, startErr := parseOptional(w.StartAt, loc)
	end, hasEnd, endErr := parseOptional(w.EndAt, loc)
	if startErr != nil {
		err = errors.Wrap(startErr, "start_at")
	} else if endErr != nil {
		err = errors.Wrap(endErr, "end_at")
	}

	// An elapsed end wins over everything else: a fully elapsed window must
	// never be reported as newly active, and a stale trailing schedule is
	// cleared with no user-visible effect.
	if hasEnd && !now.Before(end) {
		next.Active = false
		next.StartAt = ""
		next.EndAt = ""
		next.UpdatedAt = now.UTC()
		return next, StateInactive, true, err
	}

	if w.Active {
		if hasStart && now.Before(start) {
			// flag raised ahead of the scheduled instant; warning only
			return next, StateScheduled, false, err
		}
		return next, StateEnforcing, false, err
	}

	if hasStart && !now.Before(start) {
		next.Active = true
		next.UpdatedAt = now.UTC()
		return next, StateEnforcing, true, err
	}

	return next, StateInactive, false, err
}

func (svc *service) Get(ctx context.Context) (Window, error) {
	w, err := svc.repo.GetSettings(ctx)
	if errors.Cause(err) == ErrNotFound {
		// first access materializes defaults
		return svc.repo.SaveSettings(ctx, Window{UpdatedAt: svc.nowFunc().UTC()})
	}
	return w, err
}

func (svc *service) Set(ctx context.Context, uw UpdateWindow) (Window, error) {
	loc := svc.conf.Location()

	w := Window{
		Active:    uw.Active,
		StartAt:   core.CleanString(uw.StartAt),
		EndAt:     core.CleanString(uw.EndAt),
		Message:   core.CleanString(uw.Message),
		UpdatedAt: svc.nowFunc().UTC(),
	}

	start, hasStart, err := parseOptional(w.StartAt, loc)
	if err != nil {
		return Window{}, core.NewValidationError(err, core.FieldError{Field: "start_at", Error: ErrMalformedTimestamp.Error()})
	}
	end, hasEnd, err := parseOptional(w.EndAt, loc)
	if err != nil {
		return Window{}, core.NewValidationError(err, core.FieldError{Field: "end_at", Error: ErrMalformedTimestamp.Error()})
	}

	// the end must come after the start; shift it forward instead of
	// rejecting so a saved window always spans a usable interval
	if hasStart && hasEnd && !end.After(start) {
		end = start.Add(svc.conf.Maintenance.DefaultWindowLength)
		w.EndAt = FormatInstant(end, loc)
	}

	return svc.repo.SaveSettings(ctx, w)
}

func (svc *service) Notice(ctx context.Context) Notice {
	w, err := svc.repo.GetSettings(ctx)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			svc.logger.Error(fmt.Sprintf("loading maintenance notice: %v", err), err)
		}
		return Notice{}
	}
	n := Notice{Message: w.Message}
	if t, ok, err := parseOptional(w.EndAt, svc.conf.Location()); err == nil && ok {
		n.EndsAt = &t
	}
	return n
}

func (svc *service) Exempt(c Caller) bool {
	if !c.Authenticated || !c.Admin {
		return false
	}
	if sfx := svc.conf.Maintenance.ExemptIDSuffix; sfx != "" && strings.HasSuffix(c.ID, sfx) {
		return true
	}
	for _, id := range svc.conf.Maintenance.ExemptIDs {
		if id == c.ID {
			return true
		}
	}
	return false
}

func (svc *service) EvaluateTick(ctx context.Context) {
	w, err := svc.repo.GetSettings(ctx)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			svc.logger.Error(fmt.Sprintf("maintenance tick: loading settings: %v", err), err)
		}
		return
	}

	next, _, changed, terr := Transition(w, svc.nowFunc(), svc.conf.Location())
	if terr != nil {
		// abandon the tick whole; the next one retries from scratch
		svc.logger.Error(fmt.Sprintf("maintenance tick abandoned: %v", terr), terr)
		return
	}
	if !changed {
		return
	}
	if _, err := svc.repo.SaveSettings(ctx, next); err != nil {
		svc.logger.Error(fmt.Sprintf("maintenance tick: saving settings: %v", err), err)
	}
}

func (svc *service) EvaluateRequest(ctx context.Context, resolve func() Caller) Decision {
	w, err := svc.repo.GetSettings(ctx)
	if err != nil {
		// fail open: enforcement is a policy layer, not a security boundary
		if errors.Cause(err) != ErrNotFound {
			svc.logger.Error(fmt.Sprintf("maintenance gate: loading settings: %v", err), err)
		}
		return DecisionAllow
	}

	// nothing configured: skip caller resolution entirely
	if !w.Active && w.StartAt == "" && w.EndAt == "" {
		return DecisionAllow
	}

	if svc.Exempt(resolve()) {
		return DecisionAllow
	}

	next, state, changed, terr := Transition(w, svc.nowFunc(), svc.conf.Location())
	if terr != nil {
		svc.logger.Error(fmt.Sprintf("maintenance gate: unparseable timestamp ignored: %v", terr), terr)
	}
	if changed && terr == nil {
		// last-writer-wins; a lost update is corrected by the next tick or request
		if _, err := svc.repo.SaveSettings(ctx, next); err != nil {
			svc.logger.Error(fmt.Sprintf("maintenance gate: saving settings: %v", err), err)
		}
	}

	if state == StateEnforcing {
		return DecisionBlock
	}
	return DecisionAllow
}
