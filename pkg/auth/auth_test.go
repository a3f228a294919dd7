package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinic/pkg/model"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, "clinic")
	actor := model.Actor{ID: "665f1c2e9b1e8a3f4c2d1a01", Role: model.RoleDoctor, Email: "dr@clinic.com", Name: "Sarah Johnson"}

	token, expiresAt, err := m.Issue(actor)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Errorf("expiresAt should be in the future")
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.Actor() != actor {
		t.Errorf("Actor() = %+v, want %+v", claims.Actor(), actor)
	}
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, "clinic")
	token, _, _ := m.Issue(model.Actor{ID: "d1", Role: model.RoleDoctor})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other", time.Hour, "clinic")
		if _, err := other.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenManager("secret", time.Hour, "clinic")
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		if _, err := later.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenManager("secret", time.Hour, "someone-else")
		if _, err := other.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := m.Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestTokenManager_MissingSecret(t *testing.T) {
	m := NewTokenManager("", time.Hour, "clinic")
	if _, _, err := m.Issue(model.Actor{ID: "d1", Role: model.RoleDoctor}); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("expected ErrMissingSecret, got %v", err)
	}
	if _, err := m.Parse("x"); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("expected ErrMissingSecret, got %v", err)
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("doctor123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if ok, err := CheckPassword(hash, "doctor123"); !ok || err != nil {
		t.Errorf("CheckPassword(correct) = %v, %v", ok, err)
	}
	if ok, err := CheckPassword(hash, "wrong"); ok || err != nil {
		t.Errorf("CheckPassword(wrong) = %v, %v", ok, err)
	}
	if _, err := CheckPassword("not-a-hash", "x"); err == nil {
		t.Error("expected error for malformed hash")
	}
}

func TestActorFromContext(t *testing.T) {
	if got := ActorFromContext(context.Background()); got.Role != model.RolePatient {
		t.Errorf("anonymous role = %s", got.Role)
	}
	ctx := WithActor(context.Background(), model.StaffActor)
	if got := ActorFromContext(ctx); got.Role != model.RoleStaff {
		t.Errorf("role = %s", got.Role)
	}
}
