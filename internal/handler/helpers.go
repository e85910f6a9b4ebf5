// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/cashewtrade/internal/middleware"
	"github.com/hitoshi/cashewtrade/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON はリクエストボディをデコードする。失敗時は統一フォーマットで
// 400を書き込み、falseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeInvalidRequest(w, "リクエストボディの解析に失敗しました。")
		return false
	}
	return true
}

// writeInvalidRequest は不正なリクエストのエラーレスポンスを書き込む。
func writeInvalidRequest(w http.ResponseWriter, message string) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  message,
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	})
}

// writeUnauthorized は認証切れのエラーレスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// requireUserID はリクエストコンテキストからユーザーIDを取得する。
// 未認証の場合は401を書き込み、falseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return "", false
	}
	return userID, true
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidCredentials, model.ErrCodeInvalidToken:
		return http.StatusUnauthorized
	case model.ErrCodeDuplicateEmail, model.ErrCodeInvalidStatusTransition:
		return http.StatusConflict
	case model.ErrCodeEmailNotConfirmed,
		model.ErrCodeSellerRoleRequired,
		model.ErrCodeBuyerRoleRequired,
		model.ErrCodeCorporateRoleRequired,
		model.ErrCodeNotOwner,
		model.ErrCodeNotParticipant,
		model.ErrCodeSSRFBlocked:
		return http.StatusForbidden
	case model.ErrCodeInvalidConfirmToken, model.ErrCodeInvalidURL:
		return http.StatusBadRequest
	case model.ErrCodeUserNotFound,
		model.ErrCodeListingNotFound,
		model.ErrCodeOrderNotFound,
		model.ErrCodeFarmNotFound,
		model.ErrCodeShipmentNotFound,
		model.ErrCodeTokenNotFound:
		return http.StatusNotFound
	case model.ErrCodeFeedNotDetected:
		return http.StatusUnprocessableEntity
	case model.ErrCodeFetchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
