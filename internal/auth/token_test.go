package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/cashewtrade/internal/model"
	"github.com/hitoshi/cashewtrade/internal/repository"
)

type mockTokenRepo struct {
	createFn    func(ctx context.Context, token *model.APIToken) error
	findByJTIFn func(ctx context.Context, jti string) (*model.APIToken, error)
	revokeFn    func(ctx context.Context, id, userID string) (bool, error)
}

func (m *mockTokenRepo) Create(ctx context.Context, token *model.APIToken) error {
	if m.createFn != nil {
		return m.createFn(ctx, token)
	}
	return nil
}

func (m *mockTokenRepo) ListByUserID(_ context.Context, _ string) ([]*model.APIToken, error) {
	return nil, nil
}

func (m *mockTokenRepo) FindByJTI(ctx context.Context, jti string) (*model.APIToken, error) {
	if m.findByJTIFn != nil {
		return m.findByJTIFn(ctx, jti)
	}
	return nil, nil
}

func (m *mockTokenRepo) Revoke(ctx context.Context, id, userID string) (bool, error) {
	if m.revokeFn != nil {
		return m.revokeFn(ctx, id, userID)
	}
	return false, nil
}

var _ repository.APITokenRepository = (*mockTokenRepo)(nil)

const testSecret = "test-secret-0123456789abcdef"

func TestTokenService_IssueAndVerify(t *testing.T) {
	var saved *model.APIToken
	repo := &mockTokenRepo{
		createFn: func(_ context.Context, tok *model.APIToken) error {
			saved = tok
			return nil
		},
		findByJTIFn: func(_ context.Context, jti string) (*model.APIToken, error) {
			if saved != nil && saved.JTI == jti {
				return saved, nil
			}
			return nil, nil
		},
	}

	svc := NewTokenService(repo, testSecret, time.Hour)
	signed, meta, err := svc.Issue(context.Background(), "user-1", "ci-pipeline")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signed == "" {
		t.Fatal("signed token is empty")
	}
	if meta.JTI == "" || meta.Name != "ci-pipeline" {
		t.Errorf("token metadata incomplete: %+v", meta)
	}

	userID, err := svc.Verify(context.Background(), signed)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("unexpected user ID: %s", userID)
	}
}

func TestTokenService_Issue_RequiresName(t *testing.T) {
	svc := NewTokenService(&mockTokenRepo{}, testSecret, time.Hour)
	if _, _, err := svc.Issue(context.Background(), "user-1", ""); err == nil {
		t.Fatal("expected error for empty token name")
	}
}

func TestTokenService_Verify_RevokedToken(t *testing.T) {
	// JTIの照会でnilが返る＝失効済みまたは未知のトークン
	repo := &mockTokenRepo{
		findByJTIFn: func(_ context.Context, _ string) (*model.APIToken, error) {
			return nil, nil
		},
	}

	svc := NewTokenService(repo, testSecret, time.Hour)
	signed, _, err := svc.Issue(context.Background(), "user-1", "revoked")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Verify(context.Background(), signed)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidToken {
		t.Fatalf("expected INVALID_TOKEN, got %v", err)
	}
}

func TestTokenService_Verify_WrongSecret(t *testing.T) {
	issuer := NewTokenService(&mockTokenRepo{}, testSecret, time.Hour)
	signed, _, err := issuer.Issue(context.Background(), "user-1", "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	verifier := NewTokenService(&mockTokenRepo{}, "another-secret", time.Hour)
	if _, err := verifier.Verify(context.Background(), signed); err == nil {
		t.Fatal("expected error for token signed with different secret")
	}
}

func TestTokenService_Verify_Garbage(t *testing.T) {
	svc := NewTokenService(&mockTokenRepo{}, testSecret, time.Hour)
	if _, err := svc.Verify(context.Background(), "not.a.jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestTokenService_Revoke_NotFound(t *testing.T) {
	repo := &mockTokenRepo{
		revokeFn: func(_ context.Context, _, _ string) (bool, error) {
			return false, nil
		},
	}

	svc := NewTokenService(repo, testSecret, time.Hour)
	err := svc.Revoke(context.Background(), "tok-1", "user-1")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTokenNotFound {
		t.Fatalf("expected TOKEN_NOT_FOUND, got %v", err)
	}
}
