package authkit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/greenledger/authkit/store"
	"github.com/greenledger/authkit/transport"
)

// Controller owns the session state machine. Build one through [Builder];
// the zero value is not usable.
//
// Every transition runs under one mutex, and the epoch counter implements
// the staleness rule: Logout and every login write advance the epoch, and
// any login or second-factor completion that observes a different epoch
// than it started with discards its result instead of writing it.
type Controller struct {
	config    Config
	transport transport.Transport
	store     store.Store // nil when persistence is disabled
	audit     *auditDispatcher
	metrics   *Metrics
	validate  *validator.Validate
	logger    *zap.Logger

	mu            sync.Mutex
	sess          Session
	pendingUserID string
	epoch         uint64
}

// cookieCarrier is implemented by transports that can hand their opaque
// cookies over for persistence. Values are blobs; nothing reads them.
type cookieCarrier interface {
	ExportCookies() []*http.Cookie
	RestoreCookies([]*http.Cookie)
}

// Close flushes and stops the audit dispatcher. The controller must not be
// used afterwards.
func (c *Controller) Close() {
	if c == nil {
		return
	}
	if c.audit != nil {
		c.audit.Close()
	}
}

// Snapshot returns a copy of the current session record.
func (c *Controller) Snapshot() Session {
	if c == nil {
		return Session{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

// Phase returns the current authentication phase.
func (c *Controller) Phase() Phase {
	return c.Snapshot().Phase
}

// UserID returns the authenticated user id, or "" outside
// PhaseAuthenticated.
func (c *Controller) UserID() string {
	return c.Snapshot().UserID
}

// Role returns the role the backend last confirmed, or "".
func (c *Controller) Role() string {
	return c.Snapshot().Role
}

// MetricsSnapshot copies the controller's counters.
func (c *Controller) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// AuditDropped reports how many audit events were dropped by a full buffer.
func (c *Controller) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

func (c *Controller) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

func (c *Controller) observeLatency(began time.Time) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Observe(MetricRequestLatency, time.Since(began))
}

func (c *Controller) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	sess Session,
	err error,
	metadataBuilder func() map[string]string,
) {
	if c == nil || c.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Phase:     sess.Phase.String(),
		UserID:    sess.UserID,
		Role:      sess.Role,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	c.audit.Emit(ctx, event)
}

// currentEpoch reads the epoch a network call departs under.
func (c *Controller) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// forceAnonymous resets the session after an unauthorized signal outside
// the refresh path. The persisted snapshot is cleared as well.
func (c *Controller) forceAnonymous(ctx context.Context, reason string) {
	c.mu.Lock()
	wasAnonymous := c.sess.Phase == PhaseAnonymous
	prior := c.sess
	c.sess = Session{}
	c.pendingUserID = ""
	c.mu.Unlock()

	if wasAnonymous {
		return
	}

	c.clearSnapshot(ctx)
	c.metricInc(MetricForcedAnonymous)
	c.emitAudit(ctx, auditEventForcedAnonymous, false, prior, ErrUnauthorized, func() map[string]string {
		return map[string]string{
			"reason": reason,
		}
	})
}

func (c *Controller) persistSnapshot(ctx context.Context, sess Session) {
	if c.store == nil || sess.Phase != PhaseAuthenticated {
		return
	}
	snap := &store.Snapshot{
		UserID:    sess.UserID,
		Role:      sess.Role,
		ExpiresAt: sess.ExpiresAt,
		SavedAt:   time.Now().UTC(),
	}
	if carrier, ok := c.transport.(cookieCarrier); ok {
		snap.Cookies = carrier.ExportCookies()
	}
	// The snapshot is an advisory cache; persistence failures must not
	// fail the transition that produced it.
	if err := c.store.Save(ctx, snap, c.config.Session.SnapshotTTL); err != nil {
		c.logger.Warn("session snapshot save failed", zap.Error(err))
	}
}

func (c *Controller) clearSnapshot(ctx context.Context) {
	if c.store == nil {
		return
	}
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("session snapshot clear failed", zap.Error(err))
	}
}
