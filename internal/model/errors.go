// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, market, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials      = "INVALID_CREDENTIALS"
	ErrCodeDuplicateEmail          = "DUPLICATE_EMAIL"
	ErrCodeEmailNotConfirmed       = "EMAIL_NOT_CONFIRMED"
	ErrCodeInvalidConfirmToken     = "INVALID_CONFIRM_TOKEN"
	ErrCodeUserNotFound            = "USER_NOT_FOUND"
	ErrCodeListingNotFound         = "LISTING_NOT_FOUND"
	ErrCodeOrderNotFound           = "ORDER_NOT_FOUND"
	ErrCodeFarmNotFound            = "FARM_NOT_FOUND"
	ErrCodeShipmentNotFound        = "SHIPMENT_NOT_FOUND"
	ErrCodeTokenNotFound           = "TOKEN_NOT_FOUND"
	ErrCodeInvalidToken            = "INVALID_TOKEN"
	ErrCodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	ErrCodeSellerRoleRequired      = "SELLER_ROLE_REQUIRED"
	ErrCodeBuyerRoleRequired       = "BUYER_ROLE_REQUIRED"
	ErrCodeCorporateRoleRequired   = "CORPORATE_ROLE_REQUIRED"
	ErrCodeNotOwner                = "NOT_OWNER"
	ErrCodeNotParticipant          = "NOT_PARTICIPANT"
	ErrCodeFeedNotDetected         = "FEED_NOT_DETECTED"
	ErrCodeInvalidURL              = "INVALID_URL"
	ErrCodeSSRFBlocked             = "SSRF_BLOCKED"
	ErrCodeFetchFailed             = "FETCH_FAILED"
)

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// メールアドレス未登録とパスワード不一致は区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewEmailNotConfirmedError はメール確認未完了エラーを生成する。
func NewEmailNotConfirmedError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailNotConfirmed,
		Message:  "メールアドレスの確認が完了していません。",
		Category: "auth",
		Action:   "登録時に送信された確認メールのリンクを開いてください。",
	}
}

// NewInvalidConfirmTokenError は確認トークン無効エラーを生成する。
func NewInvalidConfirmTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidConfirmToken,
		Message:  "確認トークンが無効です。",
		Category: "auth",
		Action:   "確認メールのリンクを開き直すか、再登録してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewListingNotFoundError は出品未検出エラーを生成する。
func NewListingNotFoundError(listingID string) *APIError {
	return &APIError{
		Code:     ErrCodeListingNotFound,
		Message:  fmt.Sprintf("指定された出品が見つかりません: %s", listingID),
		Category: "market",
		Action:   "出品IDを確認してください。",
	}
}

// NewOrderNotFoundError は注文未検出エラーを生成する。
func NewOrderNotFoundError(orderID string) *APIError {
	return &APIError{
		Code:     ErrCodeOrderNotFound,
		Message:  fmt.Sprintf("指定された注文が見つかりません: %s", orderID),
		Category: "market",
		Action:   "注文IDを確認してください。",
	}
}

// NewFarmNotFoundError は農場未検出エラーを生成する。
func NewFarmNotFoundError(farmID string) *APIError {
	return &APIError{
		Code:     ErrCodeFarmNotFound,
		Message:  fmt.Sprintf("指定された農場が見つかりません: %s", farmID),
		Category: "market",
		Action:   "農場IDを確認してください。",
	}
}

// NewShipmentNotFoundError は輸送未検出エラーを生成する。
func NewShipmentNotFoundError(shipmentID string) *APIError {
	return &APIError{
		Code:     ErrCodeShipmentNotFound,
		Message:  fmt.Sprintf("指定された輸送が見つかりません: %s", shipmentID),
		Category: "market",
		Action:   "輸送IDを確認してください。",
	}
}

// NewTokenNotFoundError はAPIトークン未検出エラーを生成する。
func NewTokenNotFoundError(tokenID string) *APIError {
	return &APIError{
		Code:     ErrCodeTokenNotFound,
		Message:  fmt.Sprintf("指定されたAPIトークンが見つかりません: %s", tokenID),
		Category: "validation",
		Action:   "トークンIDを確認してください。",
	}
}

// NewInvalidTokenError はAPIトークン無効エラーを生成する。
// 署名不正・期限切れ・失効済みは区別しない。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "APIトークンが無効です。",
		Category: "auth",
		Action:   "新しいトークンを発行してください。",
	}
}

// NewInvalidStatusTransitionError は注文・輸送の不正な状態遷移エラーを生成する。
func NewInvalidStatusTransitionError(from, to string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatusTransition,
		Message:  fmt.Sprintf("状態を %s から %s に変更することはできません。", from, to),
		Category: "validation",
		Action:   "現在の状態から遷移可能な状態を指定してください。",
	}
}

// NewSellerRoleRequiredError は売り手権限が必要な操作のエラーを生成する。
func NewSellerRoleRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSellerRoleRequired,
		Message:  "この操作には売り手アカウントが必要です。",
		Category: "auth",
		Action:   "アカウント設定でアカウント種別を確認してください。",
	}
}

// NewBuyerRoleRequiredError は買い手権限が必要な操作のエラーを生成する。
func NewBuyerRoleRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeBuyerRoleRequired,
		Message:  "この操作には買い手アカウントが必要です。",
		Category: "auth",
		Action:   "アカウント設定でアカウント種別を確認してください。",
	}
}

// NewNotOwnerError は所有者以外による更新操作のエラーを生成する。
func NewNotOwnerError() *APIError {
	return &APIError{
		Code:     ErrCodeNotOwner,
		Message:  "このリソースを変更する権限がありません。",
		Category: "auth",
		Action:   "自分が作成したリソースのみ変更できます。",
	}
}

// NewCorporateRoleRequiredError は法人バイヤー以外による操作のエラーを生成する。
func NewCorporateRoleRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeCorporateRoleRequired,
		Message:  "この操作には法人バイヤーの役割が必要です。",
		Category: "auth",
		Action:   "プロフィールの役割を確認してください。",
	}
}

// NewNotParticipantError は注文の当事者以外によるアクセスのエラーを生成する。
func NewNotParticipantError() *APIError {
	return &APIError{
		Code:     ErrCodeNotParticipant,
		Message:  "この注文を参照する権限がありません。",
		Category: "auth",
		Action:   "自分が当事者である注文のみ参照できます。",
	}
}

// NewFeedNotDetectedError はニュースフィード未検出エラーを生成する。
func NewFeedNotDetectedError(url string) *APIError {
	return &APIError{
		Code:     ErrCodeFeedNotDetected,
		Message:  fmt.Sprintf("指定されたURLからRSS/Atomフィードを検出できませんでした: %s", url),
		Category: "news",
		Action:   "RSS/AtomフィードのURLを直接入力するか、フィードが公開されているページのURLを確認してください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているWebサイトのURLを入力してください。ローカルネットワークやプライベートIPへのアクセスは許可されていません。",
	}
}

// NewFetchFailedError はフェッチ失敗エラーを生成する。
func NewFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeFetchFailed,
		Message:  fmt.Sprintf("URLの取得に失敗しました: %s", reason),
		Category: "news",
		Action:   "URLが正しいか確認し、しばらく待ってから再度お試しください。",
	}
}
