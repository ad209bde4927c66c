package flows

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/MrEthical07/goOIDC/endpoint"
	"github.com/MrEthical07/goOIDC/internal/rate"
)

// PollState is the observable state of a device/CIBA polling loop.
type PollState uint8

const (
	// PollPending — the end user has not yet approved; keep polling.
	PollPending PollState = iota
	// PollSlowed — the provider asked for a larger interval.
	PollSlowed
	// PollApproved — tokens issued; terminal.
	PollApproved
	// PollDenied — the end user rejected the request; terminal, fatal.
	PollDenied
	// PollExpired — the device/backchannel session lapsed; terminal, fatal.
	PollExpired
)

// PollSession identifies one device or backchannel authorization to poll.
type PollSession struct {
	// GrantType is endpoint.GrantDeviceCode or endpoint.GrantCIBA.
	GrantType string

	// ID is the device_code or auth_req_id.
	ID string

	// Interval is the provider-issued starting interval.
	Interval time.Duration

	// ExpiresAt bounds the session. Zero means no expiry is known.
	ExpiresAt time.Time
}

// PollDeps wires the polling loop.
type PollDeps struct {
	Endpoint TokenEndpoint
	Auth     endpoint.ClientAuth

	// Sleep waits for d or until ctx is done. Injected so tests can record
	// waits instead of taking them.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time

	SlowDownIncrement time.Duration
	IntervalCeiling   time.Duration
	TransientBudget   int

	// OnState observes every state transition; may be nil.
	OnState func(state PollState)

	DeniedErr    error
	ExpiredErr   error
	ExhaustedErr error
}

// RunPoll drives the token endpoint at the current interval until a terminal
// state. authorization_pending keeps the interval; slow_down grows it by the
// fixed increment up to the ceiling; access_denied and expired_token are
// terminal and fatal; transport failures consume a bounded retry budget with
// backoff. Cancellation via ctx suppresses the next scheduled poll — no
// further network calls are made once ctx is done.
func RunPoll(ctx context.Context, sess PollSession, deps PollDeps) (*endpoint.TokenResponse, error) {
	if deps.Sleep == nil {
		deps.Sleep = sleepCtx
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	form := url.Values{}
	form.Set("grant_type", sess.GrantType)
	switch sess.GrantType {
	case endpoint.GrantDeviceCode:
		form.Set("device_code", sess.ID)
	case endpoint.GrantCIBA:
		form.Set("auth_req_id", sess.ID)
	default:
		return nil, fmt.Errorf("unsupported polling grant type %q", sess.GrantType)
	}

	governor := rate.NewGovernor(sess.Interval, deps.SlowDownIncrement, deps.IntervalCeiling, deps.TransientBudget)
	observe := deps.OnState
	if observe == nil {
		observe = func(PollState) {}
	}

	wait := governor.Interval()
	for {
		if !sess.ExpiresAt.IsZero() && deps.Now().After(sess.ExpiresAt) {
			observe(PollExpired)
			return nil, deps.ExpiredErr
		}

		if err := deps.Sleep(ctx, wait); err != nil {
			return nil, err
		}

		if !sess.ExpiresAt.IsZero() && deps.Now().After(sess.ExpiresAt) {
			observe(PollExpired)
			return nil, deps.ExpiredErr
		}

		resp, err := deps.Endpoint.Token(ctx, form, deps.Auth)
		if err == nil {
			governor.Settle()
			observe(PollApproved)
			return resp, nil
		}

		var pe *endpoint.ProtocolError
		switch {
		case errors.As(err, &pe) && pe.Code == endpoint.ErrorAuthorizationPending:
			governor.Settle()
			observe(PollPending)
			wait = governor.Interval()

		case errors.As(err, &pe) && pe.Code == endpoint.ErrorSlowDown:
			governor.Settle()
			observe(PollSlowed)
			wait = governor.SlowDown()

		case errors.As(err, &pe) && pe.Code == endpoint.ErrorAccessDenied:
			observe(PollDenied)
			return nil, fmt.Errorf("%w: %s", deps.DeniedErr, pe.Error())

		case errors.As(err, &pe) && pe.Code == endpoint.ErrorExpiredToken:
			observe(PollExpired)
			return nil, fmt.Errorf("%w: %s", deps.ExpiredErr, pe.Error())

		case errors.As(err, &pe):
			// Any other protocol rejection is fatal for this session.
			return nil, pe

		default:
			// Transport or 5xx failure.
			delay, berr := governor.TransientFailure()
			if berr != nil {
				return nil, fmt.Errorf("%w: %v", deps.ExhaustedErr, err)
			}
			wait = delay
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
