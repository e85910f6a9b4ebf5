package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/cashewtrade/internal/model"
)

// newAuthedRouter は本番と同じ構成のSession→CSRF認証グループを持つ
// chi.Routerを組み立てる。セッションID "sess-ok" のみ有効。
func newAuthedRouter() chi.Router {
	repo := &mockSessionRepository{
		findByIDFn: func(_ context.Context, id string) (*model.Session, error) {
			if id != "sess-ok" {
				return nil, nil
			}
			return &model.Session{
				ID:        id,
				UserID:    "user-trader",
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}

	csrfConfig := CSRFConfig{CookieSecure: false}

	r := chi.NewRouter()
	r.Get("/api/csrf-token", NewCSRFTokenHandler(csrfConfig).ServeHTTP)
	r.Group(func(r chi.Router) {
		r.Use(NewSessionMiddleware(repo))
		r.Use(NewCSRFMiddleware(csrfConfig))

		r.Get("/api/listings", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserIDFromContext(r.Context())
			json.NewEncoder(w).Encode(map[string]string{"user_id": userID})
		})
		r.Post("/api/orders", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserIDFromContext(r.Context())
			json.NewEncoder(w).Encode(map[string]string{"user_id": userID})
		})
	})
	return r
}

// TestRouterIntegration_SessionAndCSRF はSession→CSRFチェーンが
// リクエストの状態ごとに正しいステータスを返すことを検証する。
func TestRouterIntegration_SessionAndCSRF(t *testing.T) {
	router := newAuthedRouter()

	tests := []struct {
		name       string
		method     string
		target     string
		session    bool
		csrf       bool
		wantStatus int
	}{
		{name: "GETはセッションのみで通る", method: http.MethodGet, target: "/api/listings", session: true, wantStatus: http.StatusOK},
		{name: "GETはセッションなしで401", method: http.MethodGet, target: "/api/listings", wantStatus: http.StatusUnauthorized},
		{name: "POSTはセッションとCSRFで通る", method: http.MethodPost, target: "/api/orders", session: true, csrf: true, wantStatus: http.StatusOK},
		{name: "POSTはCSRFなしで403", method: http.MethodPost, target: "/api/orders", session: true, wantStatus: http.StatusForbidden},
		{name: "POSTはセッションなしで401", method: http.MethodPost, target: "/api/orders", csrf: true, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.session {
				req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-ok"})
			}
			if tt.csrf {
				req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "csrf-abc"})
				req.Header.Set(csrfHeaderName, "csrf-abc")
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

// TestRouterIntegration_CSRFTokenFlow はトークン取得エンドポイントで得た
// トークンがそのまま状態変更リクエストに使えることを検証する。
func TestRouterIntegration_CSRFTokenFlow(t *testing.T) {
	router := newAuthedRouter()

	// 認証不要のトークン取得
	tokenRec := httptest.NewRecorder()
	router.ServeHTTP(tokenRec, httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))
	if tokenRec.Code != http.StatusOK {
		t.Fatalf("token endpoint status = %d, want 200", tokenRec.Code)
	}

	var tokenBody struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(tokenRec.Body.Bytes(), &tokenBody); err != nil {
		t.Fatalf("failed to decode token response: %v", err)
	}
	if tokenBody.Token == "" {
		t.Fatal("トークンは空であってはならない")
	}

	// 取得したトークンで注文リクエスト
	req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-ok"})
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tokenBody.Token})
	req.Header.Set(csrfHeaderName, tokenBody.Token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body["user_id"] != "user-trader" {
		t.Errorf("user_id = %q, want user-trader", body["user_id"])
	}
}
