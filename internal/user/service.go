// Package user はプロフィール管理と退会処理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/cashewtrade/internal/model"
	"github.com/hitoshi/cashewtrade/internal/repository"
)

// UpdateProfileInput はプロフィール更新の入力。
type UpdateProfileInput struct {
	FullName    string
	Phone       string
	CompanyName string
	UserRole    model.UserRole
	AccountType model.AccountType
}

// ListingDeactivator は退会時に売り手の全出品を非公開化するインターフェース。
type ListingDeactivator interface {
	ListBySellerID(ctx context.Context, sellerID string) ([]*model.Listing, error)
	Deactivate(ctx context.Context, id, sellerID string) (bool, error)
}

// Service はユーザー管理のサービス層。
// プロフィール更新と退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	listings    ListingDeactivator
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	listings ListingDeactivator,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		listings:    listings,
	}
}

// GetProfile はユーザーのプロフィールを取得する。
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateProfile はプロフィール属性を更新する。
// 役割とアカウント種別は定義済みの値のみ受け付ける。
func (s *Service) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	if !model.ValidUserRole(input.UserRole) {
		return nil, fmt.Errorf("invalid user role: %s", input.UserRole)
	}
	if !model.ValidAccountType(input.AccountType) {
		return nil, fmt.Errorf("invalid account type: %s", input.AccountType)
	}

	user.FullName = input.FullName
	user.Phone = input.Phone
	user.CompanyName = input.CompanyName
	user.UserRole = input.UserRole
	user.AccountType = input.AccountType
	user.UpdatedAt = time.Now()
	user.ApplyProfileDefaults()

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	slog.Info("profile updated", slog.String("user_id", userID))
	return user, nil
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: 出品の非公開化 → sessions → user（+ CASCADE: api_tokens, orders等の参照）
// 注文と決済の記録は取引相手の履歴保全のため残す。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("withdrawal started", slog.String("user_id", userID))

	// 1. 公開中の出品を非公開化
	if s.listings != nil {
		listings, err := s.listings.ListBySellerID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list seller listings: %w", err)
		}
		for _, listing := range listings {
			if !listing.Active {
				continue
			}
			if _, err := s.listings.Deactivate(ctx, listing.ID, userID); err != nil {
				return fmt.Errorf("failed to deactivate listing %s: %w", listing.ID, err)
			}
		}
	}

	// 2. セッションを削除
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	// 3. ユーザーを削除（api_tokensはCASCADE削除）
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("withdrawal completed", slog.String("user_id", userID))
	return nil
}
