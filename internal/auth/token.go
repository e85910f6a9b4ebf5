package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/cashewtrade/internal/model"
	"github.com/hitoshi/cashewtrade/internal/repository"
)

// TokenClaims は開発者APIトークンのJWTクレーム。
type TokenClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenService は開発者API用パーソナルアクセストークンの発行・検証を行う。
// トークン本体はJWT（HS256）で、メタデータとJTIのみをDBに保存する。
type TokenService struct {
	tokenRepo repository.APITokenRepository
	secret    []byte
	ttl       time.Duration
}

// NewTokenService はTokenServiceを生成する。
func NewTokenService(tokenRepo repository.APITokenRepository, secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		tokenRepo: tokenRepo,
		secret:    []byte(secret),
		ttl:       ttl,
	}
}

// Issue は新しいアクセストークンを発行する。
// 署名済みJWT文字列は発行時にのみ返され、以降は取得できない。
func (s *TokenService) Issue(ctx context.Context, userID, name string) (string, *model.APIToken, error) {
	if name == "" {
		return "", nil, fmt.Errorf("token name is required")
	}

	now := time.Now()
	jti := uuid.New().String()
	expiresAt := now.Add(s.ttl)

	claims := TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	token := &model.APIToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		JTI:       jti,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return "", nil, fmt.Errorf("failed to save token metadata: %w", err)
	}

	slog.Info("api token issued",
		slog.String("user_id", userID),
		slog.String("token_id", token.ID),
	)
	return signed, token, nil
}

// Verify は署名済みトークンを検証し、所有者のユーザーIDを返す。
// 署名不正、期限切れ、失効済みのいずれもInvalidTokenエラーとする。
func (s *TokenService) Verify(ctx context.Context, tokenString string) (string, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", model.NewInvalidTokenError()
	}

	// 失効確認。DBに記録がない、またはrevoked_atが設定済みならnilが返る。
	record, err := s.tokenRepo.FindByJTI(ctx, claims.ID)
	if err != nil {
		return "", fmt.Errorf("failed to look up token: %w", err)
	}
	if record == nil {
		return "", model.NewInvalidTokenError()
	}

	return claims.UserID, nil
}

// List はユーザーのトークン一覧を返す。
func (s *TokenService) List(ctx context.Context, userID string) ([]*model.APIToken, error) {
	tokens, err := s.tokenRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}

// Revoke は指定トークンを失効させる。
// 他人のトークンや存在しないIDに対してはNotFoundエラーを返す。
func (s *TokenService) Revoke(ctx context.Context, tokenID, userID string) error {
	revoked, err := s.tokenRepo.Revoke(ctx, tokenID, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	if !revoked {
		return model.NewTokenNotFoundError(tokenID)
	}

	slog.Info("api token revoked",
		slog.String("user_id", userID),
		slog.String("token_id", tokenID),
	)
	return nil
}
