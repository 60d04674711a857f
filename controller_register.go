package authkit

import (
	"context"
	"fmt"
	"time"
)

// Register submits a registration, invite-scoped when inviteToken is
// non-empty and open self-registration otherwise. Registration never
// mutates the session: a successful registration is followed by an explicit
// SubmitLogin. Backend validation failures (duplicate email, weak password,
// expired invite) are passed through verbatim.
func (c *Controller) Register(ctx context.Context, inviteToken string, input RegistrationInput) error {
	if c == nil || c.transport == nil {
		return ErrControllerNotReady
	}

	if err := c.validate.Struct(input); err != nil {
		c.metricInc(MetricRegisterFailure)
		c.emitAudit(ctx, auditEventRegisterFailure, false, c.Snapshot(), ErrRegistrationInvalid, func() map[string]string {
			return map[string]string{
				"invited": fmt.Sprint(inviteToken != ""),
			}
		})
		return fmt.Errorf("%w: %v", ErrRegistrationInvalid, err)
	}

	began := time.Now()
	err := c.transport.Register(ctx, inviteToken, input.Email, input.Username, input.Password)
	c.observeLatency(began)

	if err != nil {
		c.metricInc(MetricRegisterFailure)
		c.emitAudit(ctx, auditEventRegisterFailure, false, c.Snapshot(), err, func() map[string]string {
			return map[string]string{
				"invited": fmt.Sprint(inviteToken != ""),
			}
		})
		return err
	}

	c.metricInc(MetricRegisterSuccess)
	c.emitAudit(ctx, auditEventRegisterSuccess, true, c.Snapshot(), nil, func() map[string]string {
		return map[string]string{
			"invited": fmt.Sprint(inviteToken != ""),
		}
	})
	return nil
}
