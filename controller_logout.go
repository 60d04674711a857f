package authkit

import "context"

// Logout discards the held identity unconditionally and then asks the
// backend to invalidate its session. The local reset happens first and is
// never rolled back: the session is anonymous when Logout returns even if
// the network call failed, and the epoch bump guarantees any login or
// second-factor call still in flight discards its result.
func (c *Controller) Logout(ctx context.Context) error {
	if c == nil {
		return ErrControllerNotReady
	}

	c.mu.Lock()
	prior := c.sess
	c.epoch++
	c.sess = Session{}
	c.pendingUserID = ""
	c.mu.Unlock()

	var err error
	if c.transport != nil {
		err = c.transport.Logout(ctx)
	}
	c.clearSnapshot(ctx)

	c.metricInc(MetricLogout)
	c.emitAudit(ctx, auditEventLogout, err == nil, prior, err, nil)
	return err
}
