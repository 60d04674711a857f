package authkit

import (
	"context"
	"errors"
	"testing"

	"github.com/greenledger/authkit/store"
	"github.com/greenledger/authkit/transport"
)

func TestLogoutFromAuthenticated(t *testing.T) {
	mock := &mockTransport{}
	controller := buildTestController(t, mock)
	authenticate(t, controller, mock, "u1", "superAdmin")

	if err := controller.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if controller.Phase() != PhaseAnonymous {
		t.Fatalf("expected PhaseAnonymous after logout")
	}
	if mock.calls(func(m *mockTransport) int { return m.logoutCalls }) != 1 {
		t.Fatalf("expected one backend logout call")
	}
}

func TestLogoutFromChallengeDiscardsTempToken(t *testing.T) {
	mock := &mockTransport{}
	controller := buildTestController(t, mock)

	mock.mu.Lock()
	mock.loginResult = &transport.LoginResult{
		SecondFactorRequired: true,
		TempToken:            "tmp-1",
	}
	mock.mu.Unlock()

	if _, err := controller.SubmitLogin(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("SubmitLogin failed: %v", err)
	}
	if err := controller.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	sess := controller.Snapshot()
	if sess.Phase != PhaseAnonymous || sess.TempToken != "" {
		t.Fatalf("logout must discard the held challenge: %+v", sess)
	}
	if _, err := controller.SubmitSecondFactor(context.Background(), "123456"); !errors.Is(err, ErrNoPendingChallenge) {
		t.Fatalf("expected ErrNoPendingChallenge after logout, got %v", err)
	}
}

func TestLogoutLocalResetSurvivesTransportFailure(t *testing.T) {
	mock := &mockTransport{
		logoutErr: ErrRequestFailed,
	}
	controller := buildTestController(t, mock)
	authenticate(t, controller, mock, "u1", "superAdmin")

	err := controller.Logout(context.Background())
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected the transport error to surface, got %v", err)
	}
	if controller.Phase() != PhaseAnonymous {
		t.Fatalf("local reset must hold even when the backend call fails")
	}
}

func TestLogoutWhenAlreadyAnonymous(t *testing.T) {
	mock := &mockTransport{}
	controller := buildTestController(t, mock)

	if err := controller.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if controller.Phase() != PhaseAnonymous {
		t.Fatalf("expected PhaseAnonymous")
	}
}

func TestLogoutClearsPersistedSnapshot(t *testing.T) {
	mem := store.NewMemory()
	mock := &mockTransport{}
	controller := buildTestController(t, mock, func(b *Builder) {
		b.WithStore(mem)
	})
	authenticate(t, controller, mock, "u1", "superAdmin")

	if _, err := mem.Load(context.Background()); err != nil {
		t.Fatalf("expected a persisted snapshot before logout: %v", err)
	}
	if err := controller.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := mem.Load(context.Background()); !errors.Is(err, store.ErrSnapshotNotFound) {
		t.Fatalf("expected cleared snapshot after logout, got %v", err)
	}
}
