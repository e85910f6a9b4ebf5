package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 8

// HashPassword は平文パスワードをbcryptでハッシュ化する。
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword は平文パスワードと保存済みハッシュを照合する。
// 一致しない場合はエラーを返す。
func VerifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
