package authkit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/greenledger/authkit/store"
	"github.com/greenledger/authkit/transport"
)

func TestBuildRequiresTransportOrBaseURL(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("expected error without transport or base URL")
	}
}

func TestBuildWithBaseURL(t *testing.T) {
	controller, err := New().WithBaseURL("https://api.example.com/").Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer controller.Close()

	if controller.Phase() != PhaseAnonymous {
		t.Fatalf("expected PhaseAnonymous, got %v", controller.Phase())
	}
}

func TestBuildRejectsReuse(t *testing.T) {
	builder := New().WithTransport(&mockTransport{})

	controller, err := builder.Build()
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	defer controller.Close()

	if _, err := builder.Build(); err == nil {
		t.Fatal("expected error on builder reuse")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Refresh.Interval = -time.Second

	_, err := New().WithTransport(&mockTransport{}).WithConfig(cfg).Build()
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBuildWiresRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mock := &mockTransport{
		loginResult: &transport.LoginResult{UserID: "u1", Role: "superAdmin"},
	}
	controller, err := New().
		WithTransport(mock).
		WithRedis(rdb, "efadmin:test:session").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer controller.Close()

	if _, err := controller.SubmitLogin(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("SubmitLogin failed: %v", err)
	}

	if !mr.Exists("efadmin:test:session") {
		t.Fatal("expected the snapshot under the configured redis key")
	}
}

func TestBuildExplicitStoreWinsOverRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mem := store.NewMemory()
	mock := &mockTransport{
		loginResult: &transport.LoginResult{UserID: "u1", Role: "superAdmin"},
	}
	controller, err := New().
		WithTransport(mock).
		WithStore(mem).
		WithRedis(rdb, "efadmin:test:session").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer controller.Close()

	if _, err := controller.SubmitLogin(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("SubmitLogin failed: %v", err)
	}

	if _, err := mem.Load(context.Background()); err != nil {
		t.Fatalf("expected the snapshot in the explicit store: %v", err)
	}
	if mr.Exists("efadmin:test:session") {
		t.Fatal("redis must be ignored when an explicit store is set")
	}
}

func TestBuildNilControllerGuards(t *testing.T) {
	var controller *Controller

	if _, err := controller.SubmitLogin(context.Background(), "a@b.c", "pw"); !errors.Is(err, ErrControllerNotReady) {
		t.Fatalf("expected ErrControllerNotReady, got %v", err)
	}
	if err := controller.Logout(context.Background()); !errors.Is(err, ErrControllerNotReady) {
		t.Fatalf("expected ErrControllerNotReady, got %v", err)
	}
}
