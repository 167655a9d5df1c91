package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/oneiromind/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := GenerateToken(42, "dreamer@example.com", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	id, err := ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if id.UserID != 42 || id.Email != "dreamer@example.com" {
		t.Fatalf("identity mismatch: got %+v", id)
	}
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken(1, "a@b.c", secret, -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = ParseToken(tok, secret)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(1, "a@b.c", []byte("right"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = ParseToken(tok, []byte("wrong"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestParseToken_Malformed(t *testing.T) {
	t.Parallel()

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := ParseToken(tok, []byte("k")); !errors.Is(err, common.ErrInvalidToken) {
			t.Fatalf("token %q: expected common.ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "a@b.c",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: 1,
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if _, err := ParseToken(tok, []byte("k")); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected HS512 token to be rejected, got %v", err)
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if _, err := ParseToken(unsigned, []byte("k")); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected unsigned token to be rejected, got %v", err)
	}
}

func TestParseToken_RequiresExpiryAndIdentity(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "a@b.c"},
		UserID:           1,
	}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if _, err := ParseToken(noExp, secret); err == nil {
		t.Fatalf("expected token without expiry to be rejected")
	}

	noUser, err := GenerateToken(0, "a@b.c", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if _, err := ParseToken(noUser, secret); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected token without user id to be rejected, got %v", err)
	}
}

func TestIdentityContext(t *testing.T) {
	t.Parallel()

	if IdentityFrom(context.Background()) != nil {
		t.Fatalf("empty context must be anonymous")
	}

	ctx := WithIdentity(context.Background(), &Identity{UserID: 7, Email: "x@y.z"})
	got := IdentityFrom(ctx)
	if got == nil || got.UserID != 7 {
		t.Fatalf("unexpected identity: %+v", got)
	}
	if got.String() != "7:x@y.z" {
		t.Fatalf("unexpected String(): %q", got.String())
	}
}
