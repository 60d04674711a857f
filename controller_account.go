package authkit

import (
	"context"
	"errors"
	"time"

	"github.com/greenledger/authkit/transport"
)

// ChangePassword submits a password change for the authenticated session.
// Two checks run locally before any network call: both fields must be
// present, and the new password must differ from the current one — the
// backend would reject reuse too, but the round trip is wasted and the
// backend's validation ordering is not deterministic. A successful change
// does not alter the session; the authenticated identity is unchanged.
func (c *Controller) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if c == nil || c.transport == nil {
		return ErrControllerNotReady
	}

	sess := c.Snapshot()
	if currentPassword == "" || newPassword == "" {
		c.metricInc(MetricPasswordChangeFailure)
		c.emitAudit(ctx, auditEventPasswordChangeFailed, false, sess, ErrPasswordRequired, nil)
		return ErrPasswordRequired
	}
	if currentPassword == newPassword {
		c.metricInc(MetricPasswordChangeReuseRejected)
		c.emitAudit(ctx, auditEventPasswordChangeReuse, false, sess, ErrPasswordReuse, nil)
		return ErrPasswordReuse
	}
	if sess.Phase != PhaseAuthenticated {
		c.metricInc(MetricPasswordChangeFailure)
		c.emitAudit(ctx, auditEventPasswordChangeFailed, false, sess, ErrUnauthorized, nil)
		return ErrUnauthorized
	}

	began := time.Now()
	err := c.transport.ChangePassword(ctx, currentPassword, newPassword)
	c.observeLatency(began)

	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			c.forceAnonymous(ctx, "change_password")
		}
		c.metricInc(MetricPasswordChangeFailure)
		c.emitAudit(ctx, auditEventPasswordChangeFailed, false, sess, err, nil)
		return err
	}

	c.metricInc(MetricPasswordChangeSuccess)
	c.emitAudit(ctx, auditEventPasswordChanged, true, sess, nil, nil)
	return nil
}

// Profile fetches the authenticated identity document. An unauthorized
// outcome is authoritative and resets the session to anonymous.
func (c *Controller) Profile(ctx context.Context) (*transport.Profile, error) {
	if c == nil || c.transport == nil {
		return nil, ErrControllerNotReady
	}

	began := time.Now()
	profile, err := c.transport.Profile(ctx)
	c.observeLatency(began)

	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			c.forceAnonymous(ctx, "profile")
		}
		c.metricInc(MetricProfileFailure)
		c.emitAudit(ctx, auditEventProfileFailure, false, c.Snapshot(), err, nil)
		return nil, err
	}

	c.metricInc(MetricProfileFetch)
	c.emitAudit(ctx, auditEventProfileFetched, true, c.Snapshot(), nil, nil)
	return profile, nil
}

// SendInvite asks the backend to mail a registration invite. Whether the
// caller's role may invite is the backend's decision; the controller only
// relays the outcome.
func (c *Controller) SendInvite(ctx context.Context, email string) error {
	if c == nil || c.transport == nil {
		return ErrControllerNotReady
	}

	began := time.Now()
	err := c.transport.SendInvite(ctx, email)
	c.observeLatency(began)

	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			c.forceAnonymous(ctx, "send_invite")
		}
		c.metricInc(MetricInviteFailure)
		c.emitAudit(ctx, auditEventInviteFailure, false, c.Snapshot(), err, nil)
		return err
	}

	c.metricInc(MetricInviteSent)
	c.emitAudit(ctx, auditEventInviteSent, true, c.Snapshot(), nil, nil)
	return nil
}
