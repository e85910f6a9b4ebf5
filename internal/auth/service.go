// Package auth はパスワード認証、セッション管理、開発者APIトークンを提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/cashewtrade/internal/model"
	"github.com/hitoshi/cashewtrade/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge       int  // セッション有効期間（秒）
	RequireEmailConfirm bool // サインアップ時にメール確認を必須とするか
}

// SignUpInput はサインアップ時のプロフィール属性。
type SignUpInput struct {
	Email       string
	Password    string
	FullName    string
	Phone       string
	CompanyName string
	UserRole    model.UserRole
	AccountType model.AccountType
}

// SignUpResult はサインアップの結果を表す。
// メール確認が必要な場合、Sessionはnilとなる。これは失敗ではなく保留状態。
type SignUpResult struct {
	User                *model.User
	Session             *model.Session
	PendingConfirmation bool
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// SignUp は新規ユーザーを登録する。
// メールアドレスが登録済みの場合はDuplicateEmailエラーを返す。
// メール確認が必要な設定の場合はセッションを発行せず保留状態で返す。
func (s *Service) SignUp(ctx context.Context, input SignUpInput) (*SignUpResult, error) {
	email := normalizeEmail(input.Email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError()
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		ID:             uuid.New().String(),
		Email:          email,
		PasswordHash:   hash,
		FullName:       input.FullName,
		Phone:          input.Phone,
		CompanyName:    input.CompanyName,
		UserRole:       input.UserRole,
		AccountType:    input.AccountType,
		EmailConfirmed: !s.config.RequireEmailConfirm,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	user.ApplyProfileDefaults()

	if s.config.RequireEmailConfirm {
		token, err := generateRandomID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate confirm token: %w", err)
		}
		user.ConfirmToken = token
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("user_role", string(user.UserRole)),
		slog.Bool("pending_confirmation", s.config.RequireEmailConfirm),
	)

	if s.config.RequireEmailConfirm {
		// セッションは発行しない。確認完了後にログインさせる。
		return &SignUpResult{User: user, Session: nil, PendingConfirmation: true}, nil
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SignUpResult{User: user, Session: session}, nil
}

// SignIn はメールアドレスとパスワードでログインし、セッションを発行する。
// メールアドレス未登録とパスワード不一致はどちらもInvalidCredentialsとして扱う。
func (s *Service) SignIn(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	if !user.EmailConfirmed {
		return nil, nil, model.NewEmailNotConfirmedError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return user, session, nil
}

// SignOut はセッションを破棄する。
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// ConfirmEmail は確認トークンで保留中のアカウントを有効化する。
func (s *Service) ConfirmEmail(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, model.NewInvalidConfirmTokenError()
	}

	user, err := s.userRepo.ConfirmByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm email: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidConfirmTokenError()
	}

	slog.Info("email confirmed", slog.String("user_id", user.ID))
	return user, nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session not found or expired")
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateRandomID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateRandomID は暗号的に安全なランダムIDを生成する。
// セッションIDとメール確認トークンの両方で使用する。
func generateRandomID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
