package authkit

import (
	"context"
	"errors"
	"time"

	"github.com/greenledger/authkit/store"
)

// Refresh re-authenticates silently from the session cookie. Success keeps
// (or re-enters) PhaseAuthenticated with whatever identity the backend
// confirmed; failure is authoritative — the backend owns session validity —
// and resets the session to anonymous.
func (c *Controller) Refresh(ctx context.Context) (Session, error) {
	if c == nil || c.transport == nil {
		return Session{}, ErrControllerNotReady
	}

	start := c.currentEpoch()
	began := time.Now()
	result, err := c.transport.Refresh(ctx)
	c.observeLatency(began)

	c.mu.Lock()
	if c.epoch != start {
		snapshot := c.sess
		c.mu.Unlock()
		c.metricInc(MetricResultDiscarded)
		c.emitAudit(ctx, auditEventResultDiscarded, false, snapshot, ErrSuperseded, func() map[string]string {
			return map[string]string{"operation": "refresh"}
		})
		return snapshot, ErrSuperseded
	}

	if err != nil {
		prior := c.sess
		c.sess = Session{}
		c.pendingUserID = ""
		c.mu.Unlock()

		c.clearSnapshot(ctx)
		c.metricInc(MetricRefreshFailure)
		c.emitAudit(ctx, auditEventRefreshFailure, false, prior, err, nil)
		return Session{}, err
	}

	next := Session{
		Phase:     PhaseAuthenticated,
		UserID:    result.UserID,
		Role:      result.Role,
		ExpiresAt: result.ExpiresAt,
	}
	if next.UserID == "" {
		next.UserID = c.sess.UserID
	}
	if next.Role == "" {
		next.Role = c.sess.Role
	}
	c.sess = next
	c.pendingUserID = ""
	c.mu.Unlock()

	c.persistSnapshot(ctx, next)
	c.metricInc(MetricRefreshSuccess)
	c.emitAudit(ctx, auditEventRefreshSuccess, true, next, nil, nil)
	return next, nil
}

// Resume restores a persisted snapshot and validates it with a refresh
// round trip, the startup path of a client that held a session before the
// process died. Returns store.ErrSnapshotNotFound when nothing was
// persisted and the refresh outcome otherwise.
func (c *Controller) Resume(ctx context.Context) (Session, error) {
	if c == nil || c.transport == nil {
		return Session{}, ErrControllerNotReady
	}
	if c.store == nil {
		return Session{}, ErrNoStore
	}

	snap, err := c.store.Load(ctx)
	if err != nil {
		if errors.Is(err, store.ErrSnapshotCorrupt) {
			c.clearSnapshot(ctx)
		}
		return c.Snapshot(), err
	}

	if carrier, ok := c.transport.(cookieCarrier); ok {
		carrier.RestoreCookies(snap.Cookies)
	}

	sess, err := c.Refresh(ctx)
	if err != nil {
		return sess, err
	}

	c.metricInc(MetricSessionResumed)
	c.emitAudit(ctx, auditEventSessionResumed, true, sess, nil, nil)
	return sess, nil
}

// AutoRefresh refreshes the session until ctx ends or the session is lost.
// It fires Lead ahead of a known expiry and every Interval when expiry is
// unknown. The first refresh failure resets the session and ends the loop;
// callers decide whether to re-run after the next login.
func (c *Controller) AutoRefresh(ctx context.Context) error {
	if c == nil || c.transport == nil {
		return ErrControllerNotReady
	}

	for {
		c.mu.Lock()
		phase := c.sess.Phase
		expiresAt := c.sess.ExpiresAt
		c.mu.Unlock()

		if phase != PhaseAuthenticated {
			return ErrUnauthorized
		}

		wait := c.config.Refresh.Interval
		if !expiresAt.IsZero() {
			until := time.Until(expiresAt) - c.config.Refresh.Lead
			if until < time.Second {
				until = time.Second
			}
			if wait <= 0 || until < wait {
				wait = until
			}
		}
		if wait <= 0 {
			// No expiry and no interval: nothing to drive the loop.
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if _, err := c.Refresh(ctx); err != nil {
			return err
		}
	}
}
