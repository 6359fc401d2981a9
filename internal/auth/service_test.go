package auth

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"mockinterview/internal/config"
	"mockinterview/internal/redis"
	"mockinterview/internal/storage"
)

func TestAuthIssueValidateRevoke(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	userID := insertUser(t, db, "issue@example.com")

	svc := NewService(db, nil, time.Hour)
	token, err := svc.IssueToken(context.Background(), userID)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
	got, err := svc.ValidateToken(context.Background(), token)
	if err != nil || got != userID {
		t.Fatalf("ValidateToken failed: id=%d err=%v", got, err)
	}
	if err := svc.RevokeToken(context.Background(), token); err != nil {
		t.Fatalf("RevokeToken error: %v", err)
	}
	if _, err := svc.ValidateToken(context.Background(), token); err != ErrInvalidToken {
		t.Fatalf("expected invalid token after revoke, got %v", err)
	}

	token2, err := svc.IssueToken(context.Background(), userID)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	if err := svc.RevokeUserTokens(context.Background(), userID); err != nil {
		t.Fatalf("RevokeUserTokens error: %v", err)
	}
	if _, err := svc.ValidateToken(context.Background(), token2); err == nil {
		t.Fatalf("expected error after revoke all")
	}
	if _, err := svc.ValidateToken(context.Background(), ""); err != ErrTokenRequired {
		t.Fatalf("expected token required, got %v", err)
	}
}

func TestAuthValidateExpiredToken(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	userID := insertUser(t, db, "expired@example.com")

	svc := NewService(db, nil, 10*time.Millisecond)
	token, err := svc.IssueToken(context.Background(), userID)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := svc.ValidateToken(context.Background(), token); err != ErrTokenExpired {
		t.Fatalf("expected expiration error, got %v", err)
	}
	// ensure token removed
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM user_tokens WHERE token = ?`, token).Scan(&count); err != nil {
		t.Fatalf("query tokens: %v", err)
	}
	if count != 0 {
		t.Fatalf("expired token not purged")
	}
}

func TestMiddlewareAcceptsBearerAndCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := openTestDB(t)
	defer db.Close()
	userID := insertUser(t, db, "mw@example.com")

	svc := NewService(db, nil, time.Hour)
	token, err := svc.IssueToken(context.Background(), userID)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}

	router := gin.New()
	router.Use(svc.Middleware())
	router.GET("/me", func(c *gin.Context) {
		id, _ := UserIDFromContext(c)
		c.String(http.StatusOK, strconv.FormatInt(id, 10))
	})

	cases := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"missing", func(*http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"lowercase bearer", func(r *http.Request) { r.Header.Set("Authorization", "bearer "+token) }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "auth_token", Value: token}) }, http.StatusOK},
		{"bogus", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status=%d want %d body=%s", rec.Code, tc.status, rec.Body.String())
			}
			if tc.status == http.StatusOK && rec.Body.String() != strconv.FormatInt(userID, 10) {
				t.Fatalf("unexpected user id %s", rec.Body.String())
			}
		})
	}
}

func TestCSRFMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewService(nil, nil, time.Hour)
	router := gin.New()
	router.Use(svc.CSRFMiddleware())
	router.Any("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func(method string, setup func(*http.Request)) int {
		req := httptest.NewRequest(method, "/x", nil)
		setup(req)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do(http.MethodGet, func(*http.Request) {}); code != http.StatusNoContent {
		t.Fatalf("GET should skip csrf, got %d", code)
	}
	if code := do(http.MethodPost, func(*http.Request) {}); code != http.StatusForbidden {
		t.Fatalf("POST without csrf should be forbidden, got %d", code)
	}
	if code := do(http.MethodPost, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer abc")
	}); code != http.StatusNoContent {
		t.Fatalf("bearer POST should skip csrf, got %d", code)
	}
	if code := do(http.MethodPost, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "csrf_token", Value: "t1"})
		r.Header.Set("X-CSRF-Token", "t2")
	}); code != http.StatusForbidden {
		t.Fatalf("mismatched csrf should be forbidden, got %d", code)
	}
	if code := do(http.MethodPost, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "csrf_token", Value: "t1"})
		r.Header.Set("X-CSRF-Token", "t1")
	}); code != http.StatusNoContent {
		t.Fatalf("matching csrf should pass, got %d", code)
	}
}

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {
				DSN: ":memory:",
			},
		},
	}
	db, err := storage.Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return db
}

func insertUser(t *testing.T, db *storage.DB, email string) int64 {
	t.Helper()
	id, err := db.InsertID(context.Background(), db,
		`INSERT INTO users (full_name, email, password_hash, created_at) VALUES (?, ?, '', ?)`,
		"Test User", email, time.Now().UTC())
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

func TestAuthTokenCacheUsesRedis(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	userID := insertUser(t, db, "cache@example.com")

	cacheClient, cleanup := newRedisCacheClient(t)
	defer cleanup()

	svc := NewService(db, cacheClient, time.Hour)
	ctx := context.Background()

	token, err := svc.IssueToken(ctx, userID)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	key := redisTokenPrefix + token
	got, err := cacheClient.Get(ctx, key)
	if err != nil {
		t.Fatalf("get redis token: %v", err)
	}
	if got != strconv.FormatInt(userID, 10) {
		t.Fatalf("expected user %d in redis, got %s", userID, got)
	}

	_, _ = db.Exec(`DELETE FROM user_tokens WHERE token = ?`, token)
	resolved, err := svc.ValidateToken(ctx, token)
	if err != nil || resolved != userID {
		t.Fatalf("ValidateToken via redis failed: id=%d err=%v", resolved, err)
	}

	if err := svc.RevokeToken(ctx, token); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	if _, err := cacheClient.Get(ctx, key); err == nil {
		t.Fatalf("expected redis key deleted")
	}
	if _, err := svc.ValidateToken(ctx, token); err == nil {
		t.Fatalf("expected error after revoke and redis delete")
	}
}

func newRedisCacheClient(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis-backed auth tests")
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("atoi port: %v", err)
	}
	db := 0
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			db = parsed
		}
	}
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Host: host,
			Port: port,
			DB:   db,
		},
	}
	client, err := redis.NewRedisClient(cfg)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	return client, func() { client.Close() }
}

func TestPurgeExpiredTokens(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	userID := insertUser(t, db, "purge@example.com")

	short := NewService(db, nil, 10*time.Millisecond)
	if _, err := short.IssueToken(context.Background(), userID); err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	long := NewService(db, nil, time.Hour)
	keep, err := long.IssueToken(context.Background(), userID)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	n, err := long.PurgeExpiredTokens(context.Background())
	if err != nil {
		t.Fatalf("PurgeExpiredTokens error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged token, got %d", n)
	}
	if _, err := long.ValidateToken(context.Background(), keep); err != nil {
		t.Fatalf("live token should survive purge: %v", err)
	}
}
