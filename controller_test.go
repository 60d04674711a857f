package authkit

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/greenledger/authkit/store"
	"github.com/greenledger/authkit/transport"
)

// mockTransport scripts every backend interaction. Results and errors are
// set per call site; counters record what the controller actually sent.
type mockTransport struct {
	mu sync.Mutex

	loginResult *transport.LoginResult
	loginErr    error
	loginGate   chan struct{} // when non-nil Login blocks until closed

	verifyResult *transport.VerifyResult
	verifyErr    error
	verifyGate   chan struct{} // when non-nil VerifySecondFactor blocks until closed

	refreshResult *transport.RefreshResult
	refreshErr    error

	logoutErr         error
	registerErr       error
	inviteErr         error
	changePasswordErr error

	profile    *transport.Profile
	profileErr error

	loginCalls          int
	verifyCalls         int
	refreshCalls        int
	logoutCalls         int
	registerCalls       int
	inviteCalls         int
	changePasswordCalls int
	profileCalls        int

	lastEmail       string
	lastTempToken   string
	lastCode        string
	lastInviteToken string
	lastInviteEmail string
}

func (m *mockTransport) Login(_ context.Context, email, _ string) (*transport.LoginResult, error) {
	m.mu.Lock()
	m.loginCalls++
	m.lastEmail = email
	gate := m.loginGate
	result, err := m.loginResult, m.loginErr
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return result, err
}

func (m *mockTransport) VerifySecondFactor(_ context.Context, tempToken, code string) (*transport.VerifyResult, error) {
	m.mu.Lock()
	m.verifyCalls++
	m.lastTempToken = tempToken
	m.lastCode = code
	gate := m.verifyGate
	result, err := m.verifyResult, m.verifyErr
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return result, err
}

func (m *mockTransport) Refresh(context.Context) (*transport.RefreshResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshCalls++
	return m.refreshResult, m.refreshErr
}

func (m *mockTransport) Logout(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logoutCalls++
	return m.logoutErr
}

func (m *mockTransport) Register(_ context.Context, inviteToken, email, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registerCalls++
	m.lastInviteToken = inviteToken
	m.lastEmail = email
	return m.registerErr
}

func (m *mockTransport) SendInvite(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inviteCalls++
	m.lastInviteEmail = email
	return m.inviteErr
}

func (m *mockTransport) ChangePassword(_ context.Context, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changePasswordCalls++
	return m.changePasswordErr
}

func (m *mockTransport) Profile(context.Context) (*transport.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profileCalls++
	return m.profile, m.profileErr
}

func (m *mockTransport) calls(read func(m *mockTransport) int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return read(m)
}

func buildTestController(t *testing.T, tp transport.Transport, opts ...func(*Builder)) *Controller {
	t.Helper()

	builder := New().WithTransport(tp)
	for _, opt := range opts {
		opt(builder)
	}

	controller, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(controller.Close)

	return controller
}

// authenticate drives the controller into PhaseAuthenticated through a
// scripted password-only login.
func authenticate(t *testing.T, controller *Controller, mock *mockTransport, userID, role string) {
	t.Helper()

	mock.mu.Lock()
	mock.loginResult = &transport.LoginResult{UserID: userID, Role: role}
	mock.loginErr = nil
	mock.mu.Unlock()

	sess, err := controller.SubmitLogin(context.Background(), "admin@example.com", "hunter2-not-really")
	if err != nil {
		t.Fatalf("SubmitLogin failed: %v", err)
	}
	if sess.Phase != PhaseAuthenticated {
		t.Fatalf("expected PhaseAuthenticated, got %v", sess.Phase)
	}
}

func TestControllerStartsAnonymous(t *testing.T) {
	controller := buildTestController(t, &mockTransport{})

	if got := controller.Phase(); got != PhaseAnonymous {
		t.Fatalf("expected PhaseAnonymous, got %v", got)
	}
	if got := controller.UserID(); got != "" {
		t.Fatalf("expected empty user id, got %q", got)
	}
	if got := controller.Role(); got != "" {
		t.Fatalf("expected empty role, got %q", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	mock := &mockTransport{}
	controller := buildTestController(t, mock)
	authenticate(t, controller, mock, "u42", "superAdmin")

	snap := controller.Snapshot()
	snap.UserID = "tampered"

	if got := controller.UserID(); got != "u42" {
		t.Fatalf("snapshot mutation leaked into controller: %q", got)
	}
}

// unavailableStore fails every operation, for exercising the advisory
// nature of snapshot persistence.
type unavailableStore struct{}

func (unavailableStore) Save(context.Context, *store.Snapshot, time.Duration) error {
	return store.ErrStoreUnavailable
}

func (unavailableStore) Load(context.Context) (*store.Snapshot, error) {
	return nil, store.ErrStoreUnavailable
}

func (unavailableStore) Clear(context.Context) error { return store.ErrStoreUnavailable }

func TestSnapshotFailureWarnsAndDoesNotFailLogin(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	mock := &mockTransport{}
	controller := buildTestController(t, mock, func(b *Builder) {
		b.WithLogger(zap.New(core)).WithStore(unavailableStore{})
	})

	// The snapshot save fails underneath; the login itself must succeed.
	authenticate(t, controller, mock, "u1", "superAdmin")

	if got := logs.FilterMessage("session snapshot save failed").Len(); got != 1 {
		t.Fatalf("expected 1 save warning, got %d", got)
	}

	if err := controller.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if got := logs.FilterMessage("session snapshot clear failed").Len(); got != 1 {
		t.Fatalf("expected 1 clear warning, got %d", got)
	}
}

func TestNilControllerAccessorsAreSafe(t *testing.T) {
	var controller *Controller

	if got := controller.Phase(); got != PhaseAnonymous {
		t.Fatalf("expected PhaseAnonymous from nil controller, got %v", got)
	}
	controller.Close()
	if got := controller.AuditDropped(); got != 0 {
		t.Fatalf("expected 0 dropped, got %d", got)
	}
}
