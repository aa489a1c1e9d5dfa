package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bugboard/api/internal/domain"
	"github.com/bugboard/api/internal/model"
)

func TestUserCreateAndFind(t *testing.T) {
	s := NewUserStore(openTestDB(t))
	ctx := context.Background()

	user, err := s.Create(ctx, "alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.ID == 0 {
		t.Error("id not assigned")
	}

	found, err := s.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Email != "alice@example.com" {
		t.Errorf("email = %q", found.Email)
	}

	if _, err := s.FindByUsername(ctx, "nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUserUniqueness(t *testing.T) {
	s := NewUserStore(openTestDB(t))
	ctx := context.Background()

	if _, err := s.Create(ctx, "alice", "alice@example.com", "hash"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.Create(ctx, "alice", "other@example.com", "hash"); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Errorf("duplicate username err = %v, want ErrUsernameTaken", err)
	}
	if _, err := s.Create(ctx, "bob", "alice@example.com", "hash"); !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("duplicate email err = %v, want ErrEmailTaken", err)
	}
}

func TestChangePassword(t *testing.T) {
	s := NewUserStore(openTestDB(t))
	ctx := context.Background()

	user, err := s.Create(ctx, "alice", "alice@example.com", "oldhash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.ChangePassword(ctx, user.ID, "newhash"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	found, err := s.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.PasswordHash != "newhash" {
		t.Errorf("hash = %q, want newhash", found.PasswordHash)
	}

	if err := s.ChangePassword(ctx, 999, "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRefreshTokenLifecycle(t *testing.T) {
	s := NewUserStore(openTestDB(t))
	ctx := context.Background()

	user, err := s.Create(ctx, "alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rt := model.RefreshToken{
		UserID:    user.ID,
		Token:     "tok-1",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	if err := s.SaveRefreshToken(ctx, &rt); err != nil {
		t.Fatalf("save: %v", err)
	}

	found, err := s.FindRefreshToken(ctx, "tok-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.UserID != user.ID {
		t.Errorf("userID = %d, want %d", found.UserID, user.ID)
	}

	if err := s.RevokeRefreshToken(ctx, "tok-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := s.FindRefreshToken(ctx, "tok-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("revoked token err = %v, want ErrNotFound", err)
	}

	expired := model.RefreshToken{
		UserID:    user.ID,
		Token:     "tok-2",
		ExpiresAt: time.Now().Add(-time.Hour),
		CreatedAt: time.Now(),
	}
	if err := s.SaveRefreshToken(ctx, &expired); err != nil {
		t.Fatalf("save expired: %v", err)
	}
	if _, err := s.FindRefreshToken(ctx, "tok-2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expired token err = %v, want ErrNotFound", err)
	}
}
