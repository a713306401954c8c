package users

import (
	"context"
	"testing"

	"github.com/tendhq/tend/internal/app/storage/memory"
	"github.com/tendhq/tend/internal/errors"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	created, err := svc.Register(ctx, "ada", "ada@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if created.PasswordHash == "" {
		t.Fatal("password hash not stored")
	}
	if created.PasswordHash == "correct horse battery" {
		t.Fatal("password stored in clear")
	}

	authed, err := svc.Authenticate(ctx, "ada", "correct horse battery")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if authed.ID != created.ID {
		t.Errorf("authenticated user ID = %q, want %q", authed.ID, created.ID)
	}

	if _, err := svc.Authenticate(ctx, "ada", "wrong"); !errors.IsCode(err, errors.CodeUnauthorized) {
		t.Errorf("wrong password: err = %v, want unauthorized", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "correct horse battery"); !errors.IsCode(err, errors.CodeUnauthorized) {
		t.Errorf("unknown user: err = %v, want unauthorized (not a user-existence oracle)", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	cases := []struct {
		name                      string
		username, email, password string
	}{
		{"blank username", " ", "a@example.com", "long enough pw"},
		{"bad email", "ada", "not-an-email", "long enough pw"},
		{"short password", "ada", "a@example.com", "short"},
	}
	for _, tc := range cases {
		if _, err := svc.Register(ctx, tc.username, tc.email, tc.password); !errors.IsCode(err, errors.CodeValidation) {
			t.Errorf("%s: err = %v, want validation error", tc.name, err)
		}
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ada", "ada@example.com", "long enough pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "ada", "other@example.com", "long enough pw"); !errors.IsCode(err, errors.CodeConflict) {
		t.Errorf("duplicate username: err = %v, want conflict", err)
	}
	if _, err := svc.Register(ctx, "grace", "ada@example.com", "long enough pw"); !errors.IsCode(err, errors.CodeConflict) {
		t.Errorf("duplicate email: err = %v, want conflict", err)
	}
}
