package authkit

import (
	"context"
	"errors"
	"time"
)

// SubmitLogin runs the password step. Three outcomes:
//
//   - authenticated immediately: the returned session is in
//     PhaseAuthenticated with the confirmed identity;
//   - second factor required: PhaseAwaitingSecondFactor with a fresh temp
//     token, replacing any previously held challenge;
//   - failure: the session is unchanged (reset to anonymous if the backend
//     signaled unauthorized) and the error carries the displayable reason.
//
// A logout or a later login racing this call wins: the result is
// discarded and ErrSuperseded returned.
func (c *Controller) SubmitLogin(ctx context.Context, email, password string) (Session, error) {
	if c == nil || c.transport == nil {
		return Session{}, ErrControllerNotReady
	}

	start := c.currentEpoch()
	began := time.Now()
	result, err := c.transport.Login(ctx, email, password)
	c.observeLatency(began)

	c.mu.Lock()
	if c.epoch != start {
		snapshot := c.sess
		c.mu.Unlock()
		c.metricInc(MetricResultDiscarded)
		c.emitAudit(ctx, auditEventResultDiscarded, false, snapshot, ErrSuperseded, func() map[string]string {
			return map[string]string{"operation": "login"}
		})
		return snapshot, ErrSuperseded
	}

	if err != nil {
		snapshot := c.sess
		c.mu.Unlock()
		if errors.Is(err, ErrUnauthorized) {
			c.forceAnonymous(ctx, "login_unauthorized")
			snapshot = Session{}
		}
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, auditEventLoginFailure, false, snapshot, err, nil)
		return snapshot, err
	}

	if result.SecondFactorRequired {
		// Entering the challenge phase always replaces a previously
		// held temp token; an abandoned challenge is never resumable
		// once a fresh login begins. The epoch bump discards any
		// verification of the old challenge still in flight.
		c.epoch++
		c.sess = Session{
			Phase:     PhaseAwaitingSecondFactor,
			Role:      result.Role,
			TempToken: result.TempToken,
			ExpiresAt: result.ExpiresAt,
		}
		c.pendingUserID = result.UserID
		snapshot := c.sess
		c.mu.Unlock()

		c.clearSnapshot(ctx)
		c.metricInc(MetricSecondFactorRequired)
		c.emitAudit(ctx, auditEventSecondFactorRequired, true, snapshot, nil, nil)
		return snapshot, nil
	}

	c.epoch++
	c.sess = Session{
		Phase:     PhaseAuthenticated,
		UserID:    result.UserID,
		Role:      result.Role,
		ExpiresAt: result.ExpiresAt,
	}
	c.pendingUserID = ""
	snapshot := c.sess
	c.mu.Unlock()

	c.persistSnapshot(ctx, snapshot)
	c.metricInc(MetricLoginSuccess)
	c.emitAudit(ctx, auditEventLoginSuccess, true, snapshot, nil, nil)
	return snapshot, nil
}

// SubmitSecondFactor confirms the pending challenge with a one-time code.
// A rejected code leaves the challenge in place so the user may retry; the
// temp token is consumed only by success or replaced by a fresh login.
func (c *Controller) SubmitSecondFactor(ctx context.Context, code string) (Session, error) {
	if c == nil || c.transport == nil {
		return Session{}, ErrControllerNotReady
	}

	c.mu.Lock()
	if c.sess.Phase != PhaseAwaitingSecondFactor {
		snapshot := c.sess
		c.mu.Unlock()
		return snapshot, ErrNoPendingChallenge
	}
	tempToken := c.sess.TempToken
	start := c.epoch
	c.mu.Unlock()

	began := time.Now()
	result, err := c.transport.VerifySecondFactor(ctx, tempToken, code)
	c.observeLatency(began)

	c.mu.Lock()
	if c.epoch != start {
		snapshot := c.sess
		c.mu.Unlock()
		c.metricInc(MetricResultDiscarded)
		c.emitAudit(ctx, auditEventResultDiscarded, false, snapshot, ErrSuperseded, func() map[string]string {
			return map[string]string{"operation": "second_factor"}
		})
		return snapshot, ErrSuperseded
	}

	if err != nil {
		snapshot := c.sess
		c.mu.Unlock()
		if errors.Is(err, ErrUnauthorized) {
			c.forceAnonymous(ctx, "second_factor_unauthorized")
			snapshot = Session{}
		}
		c.metricInc(MetricSecondFactorFailure)
		c.emitAudit(ctx, auditEventSecondFactorFailure, false, snapshot, err, nil)
		return snapshot, err
	}

	role := result.Role
	if role == "" {
		role = c.sess.Role
	}
	c.sess = Session{
		Phase:  PhaseAuthenticated,
		UserID: c.pendingUserID,
		Role:   role,
	}
	c.pendingUserID = ""
	snapshot := c.sess
	c.mu.Unlock()

	c.persistSnapshot(ctx, snapshot)
	c.metricInc(MetricSecondFactorSuccess)
	c.emitAudit(ctx, auditEventSecondFactorSuccess, true, snapshot, nil, nil)
	return snapshot, nil
}
