// Package model はドメインモデルを定義する。
package model

import "time"

// UserRole はユーザーの業務上の役割を表す。
type UserRole string

const (
	// RoleFarmer は生産農家。
	RoleFarmer UserRole = "farmer"
	// RoleTrader は商社・仲買人。
	RoleTrader UserRole = "trader"
	// RoleCorporate は法人バイヤー。
	RoleCorporate UserRole = "corporate"
	// RoleProcessor は加工業者。
	RoleProcessor UserRole = "processor"
	// RoleLogistics は物流事業者。
	RoleLogistics UserRole = "logistics"
	// RoleFinancialPartner は金融パートナー。
	RoleFinancialPartner UserRole = "financial_partner"
)

// ValidUserRole は役割が定義済みのものであるかを返す。
func ValidUserRole(r UserRole) bool {
	switch r {
	case RoleFarmer, RoleTrader, RoleCorporate, RoleProcessor, RoleLogistics, RoleFinancialPartner:
		return true
	}
	return false
}

// AccountType は取引上の立場（売り手/買い手/両方）を表す。
type AccountType string

const (
	// AccountSeller は売り手アカウント。
	AccountSeller AccountType = "seller"
	// AccountBuyer は買い手アカウント。
	AccountBuyer AccountType = "buyer"
	// AccountBoth は売り手と買い手を兼ねるアカウント。
	AccountBoth AccountType = "both"
)

// ValidAccountType はアカウント種別が定義済みのものであるかを返す。
func ValidAccountType(a AccountType) bool {
	switch a {
	case AccountSeller, AccountBuyer, AccountBoth:
		return true
	}
	return false
}

// CanSell はアカウント種別が出品可能であるかを返す。
func (a AccountType) CanSell() bool {
	return a == AccountSeller || a == AccountBoth
}

// CanBuy はアカウント種別が発注可能であるかを返す。
func (a AccountType) CanBuy() bool {
	return a == AccountBuyer || a == AccountBoth
}

// User はサービス利用ユーザーを表す。
// プロフィール属性は型付きフィールドとして保持する。
type User struct {
	ID             string
	Email          string
	PasswordHash   string
	FullName       string
	Phone          string
	CompanyName    string
	UserRole       UserRole
	AccountType    AccountType
	EmailConfirmed bool
	ConfirmToken   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ApplyProfileDefaults は未設定のプロフィール属性に既定値を補完する。
// FullNameが空の場合はEmailのローカル部を表示名として使用し、
// 役割とアカウント種別は最も権限の狭い値に倒す。
func (u *User) ApplyProfileDefaults() {
	if u.FullName == "" {
		u.FullName = localPart(u.Email)
	}
	if !ValidUserRole(u.UserRole) {
		u.UserRole = RoleTrader
	}
	if !ValidAccountType(u.AccountType) {
		u.AccountType = AccountBuyer
	}
}

func localPart(email string) string {
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			return email[:i]
		}
	}
	return email
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// APIToken は開発者API用のパーソナルアクセストークンのメタデータを表す。
// トークン本体（JWT）は保存せず、識別用のJTIのみ保持する。
type APIToken struct {
	ID        string
	UserID    string
	Name      string
	JTI       string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
