package service

import (
	"context"
	"testing"

	"github.com/studyshare/backend/internal/db/dbtest"
	"github.com/studyshare/backend/internal/model"
	"github.com/studyshare/backend/internal/repository"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	return NewUserService(repository.NewUserRepository(dbtest.New(t)))
}

func strPtr(s string) *string {
	return &s
}

func principal(id, email string) *model.Principal {
	return &model.Principal{ID: id, Email: email}
}

func TestUserCreateNormalizesEmail(t *testing.T) {
	svc := newUserService(t)

	user, err := svc.Create(context.Background(), principal("sub-1", "ann@example.com"), CreateUserInput{Email: "  Ann@Example.com ", Name: strPtr(" Ann ")})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if user.ID != "sub-1" {
		t.Fatalf("expected principal id, got %q", user.ID)
	}
	if user.Email != "ann@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.Name == nil || *user.Name != "Ann" {
		t.Fatalf("expected trimmed name, got %v", user.Name)
	}
}

func TestUserCreateValidation(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	ann := principal("sub-1", "ann@example.com")

	_, err := svc.Create(ctx, ann, CreateUserInput{Email: "not-an-email"})
	assertKind(t, err, KindValidation)

	_, err = svc.Create(ctx, ann, CreateUserInput{Email: "ann@example.com", Name: strPtr("  ")})
	assertKind(t, err, KindValidation)

	_, err = svc.Create(ctx, ann, CreateUserInput{ID: "sub-1", Email: "ann@example.com"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, err = svc.Create(ctx, ann, CreateUserInput{Email: "ANN@example.com"})
	assertKind(t, err, KindConflict)
}

func TestUserLookups(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, principal("sub-1", "ann@example.com"), CreateUserInput{Email: "ann@example.com"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	byID, err := svc.ByID(ctx, "sub-1")
	if err != nil || byID.Email != created.Email {
		t.Fatalf("ByID: got %+v, %v", byID, err)
	}

	byEmail, err := svc.ByEmail(ctx, "Ann@Example.com")
	if err != nil || byEmail.ID != "sub-1" {
		t.Fatalf("ByEmail: got %+v, %v", byEmail, err)
	}

	_, err = svc.ByEmail(ctx, " ")
	assertKind(t, err, KindValidation)

	_, err = svc.ByID(ctx, "missing")
	assertKind(t, err, KindNotFound)
}

func TestUserUpdateMerges(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, principal("u1", "ann@example.com"), CreateUserInput{Email: "ann@example.com", Name: strPtr("Ann")})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, err = svc.Create(ctx, principal("u2", "bea@example.com"), CreateUserInput{Email: "bea@example.com"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Signed in again with a new address
	ann := principal("u1", "Ann@Uni.edu")

	// Absent name is left alone
	updated, err := svc.Update(ctx, ann, "u1", UpdateUserInput{Email: strPtr("ann@uni.edu")})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Email != "ann@uni.edu" || updated.Name == nil || *updated.Name != "Ann" {
		t.Fatalf("unexpected user %+v", updated)
	}

	// Explicit null clears it
	updated, err = svc.Update(ctx, ann, "u1", UpdateUserInput{NameSet: true})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != nil {
		t.Fatalf("expected name to be cleared, got %q", *updated.Name)
	}

	_, err = svc.Update(ctx, principal("u1", "bea@example.com"), "u1", UpdateUserInput{Email: strPtr("bea@example.com")})
	assertKind(t, err, KindConflict)

	_, err = svc.Update(ctx, ann, "u1", UpdateUserInput{Email: strPtr("bad")})
	assertKind(t, err, KindValidation)

	_, err = svc.Update(ctx, principal("missing", ""), "missing", UpdateUserInput{})
	assertKind(t, err, KindNotFound)
}

func TestUserDelete(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	ann := principal("u1", "ann@example.com")
	_, err := svc.Create(ctx, ann, CreateUserInput{Email: "ann@example.com"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	deleted, err := svc.Delete(ctx, ann, "u1")
	if err != nil || deleted.ID != "u1" {
		t.Fatalf("delete: got %+v, %v", deleted, err)
	}

	_, err = svc.Delete(ctx, ann, "u1")
	assertKind(t, err, KindNotFound)
}

func TestUserAccountPolicy(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	victim := principal("victim", "victim@example.com")
	_, err := svc.Create(ctx, victim, CreateUserInput{Email: "victim@example.com"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	attacker := principal("attacker", "attacker@example.com")

	_, err = svc.Create(ctx, nil, CreateUserInput{Email: "anon@example.com"})
	assertKind(t, err, KindUnauthenticated)

	// Registering under someone else's subject or address
	_, err = svc.Create(ctx, attacker, CreateUserInput{ID: "other", Email: "attacker@example.com"})
	assertKind(t, err, KindForbidden)
	_, err = svc.Create(ctx, attacker, CreateUserInput{Email: "someone@example.com"})
	assertKind(t, err, KindForbidden)

	_, err = svc.Update(ctx, nil, "victim", UpdateUserInput{Email: strPtr("attacker@example.com")})
	assertKind(t, err, KindUnauthenticated)
	_, err = svc.Update(ctx, attacker, "victim", UpdateUserInput{Email: strPtr("attacker@example.com")})
	assertKind(t, err, KindForbidden)

	// Own account, but claiming an address the principal did not sign in with
	_, err = svc.Update(ctx, victim, "victim", UpdateUserInput{Email: strPtr("attacker@example.com")})
	assertKind(t, err, KindForbidden)

	_, err = svc.Delete(ctx, nil, "victim")
	assertKind(t, err, KindUnauthenticated)
	_, err = svc.Delete(ctx, attacker, "victim")
	assertKind(t, err, KindForbidden)

	user, err := svc.ByID(ctx, "victim")
	if err != nil || user.Email != "victim@example.com" {
		t.Fatalf("victim account changed: %+v, %v", user, err)
	}

	// Sign-in with the attacker's address must not resolve to the victim
	signedIn, err := svc.EnsureOAuthUser(ctx, "attacker@example.com", "", "google")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	if signedIn.ID == "victim" {
		t.Fatal("sign-in resolved to another user's account")
	}
}

func TestEnsureOAuthUser(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	first, err := svc.EnsureOAuthUser(ctx, "Ann@Example.com", "Ann", "google")
	if err != nil {
		t.Fatalf("first sign-in failed: %v", err)
	}
	if first.Name == nil || *first.Name != "Ann" {
		t.Fatalf("expected provider name, got %v", first.Name)
	}

	second, err := svc.EnsureOAuthUser(ctx, "ann@example.com", "Someone Else", "google")
	if err != nil {
		t.Fatalf("second sign-in failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same user, got %s and %s", first.ID, second.ID)
	}
	if *second.Name != "Ann" {
		t.Fatalf("stored name must not be overwritten, got %q", *second.Name)
	}

	all, err := svc.All(ctx)
	if err != nil {
		t.Fatalf("all failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 user, got %d", len(all))
	}
}
