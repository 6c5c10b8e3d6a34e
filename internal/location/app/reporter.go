package app

import (
	"context"
	"errors"
	"time"

	"joa_realtime/internal/location/domain"
	"joa_realtime/pkg/config"
	errprocess "joa_realtime/pkg/err"
	"joa_realtime/pkg/logger"
	"joa_realtime/pkg/session"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// PositionSource current device position
type PositionSource interface {
	Current(ctx context.Context) (domain.Position, error)
}

// LocationUpdater geofence check through REST
type LocationUpdater interface {
	UpdateLocation(ctx context.Context, report domain.LocationReport) (bool, error)
}

// State outcome of one reporter step
type State int

const (
	// StateInside position reported, member is on campus
	StateInside State = iota
	// StateOutside member is off campus, reporting pauses for the cooldown
	StateOutside
	// StateOutsideWindow current hour is outside the reporting window
	StateOutsideWindow
	// StateFailed the step failed, Err tells why
	StateFailed
)

// Status one reporter step
type Status struct {
	State State
	Err   error
	At    time.Time
}

// StaticSource fixed position, for the CLI and tests
type StaticSource struct {
	Position domain.Position
}

// Current return the fixed position
func (s StaticSource) Current(context.Context) (domain.Position, error) {
	return s.Position, nil
}

// Reporter send the member position on an interval inside the allowed hours
type Reporter struct {
	cfg      config.LocationConfig
	sess     session.Session
	source   PositionSource
	api      LocationUpdater
	clock    clock.Clock
	statuses chan Status
}

// NewReporter create location reporter
func NewReporter(cfg config.LocationConfig, sess session.Session, source PositionSource, api LocationUpdater, clk clock.Clock) *Reporter {
	if clk == nil {
		clk = clock.New()
	}
	return &Reporter{
		cfg:      cfg,
		sess:     sess,
		source:   source,
		api:      api,
		clock:    clk,
		statuses: make(chan Status, 8),
	}
}

// Statuses one entry per step, dropped when nobody reads
func (r *Reporter) Statuses() <-chan Status {
	return r.statuses
}

// Run report until ctx is done or the account can no longer be used
func (r *Reporter) Run(ctx context.Context) error {
	ticker := r.clock.Ticker(r.cfg.Interval)
	defer func() { ticker.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		st := r.step(ctx)
		switch {
		case st.State == StateFailed && fatal(st.Err):
			r.emit(st)
			return st.Err
		case st.State == StateOutside:
			// 不在範圍內, 暫停回報
			ticker.Stop()
			wake := r.clock.After(r.cfg.Cooldown)
			r.emit(st)
			logger.Log.Warn("member outside campus, pausing location reports", zap.Duration("cooldown", r.cfg.Cooldown))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-wake:
			}
			ticker = r.clock.Ticker(r.cfg.Interval)
		default:
			r.emit(st)
		}
	}
}

// step one report, skipped outside the reporting window
func (r *Reporter) step(ctx context.Context) Status {
	now := r.clock.Now()
	if !r.InWindow(now) {
		return Status{State: StateOutsideWindow, At: now}
	}
	pos, err := r.source.Current(ctx)
	if err != nil {
		return Status{State: StateFailed, Err: err, At: now}
	}
	inside, err := r.api.UpdateLocation(ctx, domain.NewLocationReport(r.sess.MemberID, pos))
	if err != nil {
		logger.Log.Error("location update failed", zap.Int64("member_id", r.sess.MemberID), zap.Error(err))
		return Status{State: StateFailed, Err: err, At: now}
	}
	if !inside {
		return Status{State: StateOutside, At: now}
	}
	return Status{State: StateInside, At: now}
}

// InWindow hour of t inside [WindowStart, WindowEnd)
func (r *Reporter) InWindow(t time.Time) bool {
	h := t.Hour()
	return h >= r.cfg.WindowStart && h < r.cfg.WindowEnd
}

func (r *Reporter) emit(st Status) {
	select {
	case r.statuses <- st:
	default:
	}
}

// fatal account level rejections, retrying cannot help
func fatal(err error) bool {
	for _, target := range []error{
		errprocess.ErrMemberNotFound,
		errprocess.ErrMemberSuspended,
		errprocess.ErrMemberBanned,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
