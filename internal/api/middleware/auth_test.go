package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testSecret = "test-secret"
	testIssuer = "results-module"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// signToken подписывает токен с указанными claims и секретом.
func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Ошибка подписи токена: %v", err)
	}
	return s
}

// validClaims возвращает валидный набор claims.
func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":   testIssuer,
		"sub":   "admin-1",
		"email": "admin@example.com",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}

// doRequest прогоняет запрос через middleware и возвращает ответ и claims,
// попавшие в контекст handler-а.
func doRequest(t *testing.T, jwtAuth *JWTAuth, authHeader string) (*httptest.ResponseRecorder, *AuthClaims) {
	t.Helper()

	var gotClaims *AuthClaims
	handler := jwtAuth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/results", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, gotClaims
}

func TestJWTAuth_ValidToken(t *testing.T) {
	jwtAuth := NewJWTAuth(testSecret, testIssuer, 0, testLogger())
	token := signToken(t, testSecret, validClaims())

	rec, claims := doRequest(t, jwtAuth, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("Статус = %d, ожидается 200. Тело: %s", rec.Code, rec.Body.String())
	}
	if claims == nil {
		t.Fatal("Claims не попали в контекст")
	}
	if claims.Subject != "admin-1" {
		t.Errorf("Subject = %q, ожидается admin-1", claims.Subject)
	}
	if claims.Email != "admin@example.com" {
		t.Errorf("Email = %q, ожидается admin@example.com", claims.Email)
	}
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	jwtAuth := NewJWTAuth(testSecret, testIssuer, 0, testLogger())

	rec, _ := doRequest(t, jwtAuth, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Статус = %d, ожидается 401", rec.Code)
	}
}

func TestJWTAuth_MalformedHeader(t *testing.T) {
	jwtAuth := NewJWTAuth(testSecret, testIssuer, 0, testLogger())
	token := signToken(t, testSecret, validClaims())

	tests := []struct {
		name   string
		header string
	}{
		{"без схемы", token},
		{"неверная схема", "Basic " + token},
		{"пустой токен", "Bearer "},
		{"мусор", "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := doRequest(t, jwtAuth, tt.header)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Статус = %d, ожидается 401", rec.Code)
			}
		})
	}
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	jwtAuth := NewJWTAuth(testSecret, testIssuer, 0, testLogger())
	token := signToken(t, "other-secret", validClaims())

	rec, _ := doRequest(t, jwtAuth, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Статус = %d, ожидается 401 при неверной подписи", rec.Code)
	}
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	jwtAuth := NewJWTAuth(testSecret, testIssuer, 0, testLogger())
	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	token := signToken(t, testSecret, claims)

	rec, _ := doRequest(t, jwtAuth, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Статус = %d, ожидается 401 для просроченного токена", rec.Code)
	}
}

func TestJWTAuth_ExpiredWithinLeeway(t *testing.T) {
	jwtAuth := NewJWTAuth(testSecret, testIssuer, 5*time.Minute, testLogger())
	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Minute).Unix()
	token := signToken(t, testSecret, claims)

	rec, _ := doRequest(t, jwtAuth, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Errorf("Статус = %d, ожидается 200: exp в пределах leeway", rec.Code)
	}
}

func TestJWTAuth_MissingExpiration(t *testing.T) {
	jwtAuth := NewJWTAuth(testSecret, testIssuer, 0, testLogger())
	claims := validClaims()
	delete(claims, "exp")
	token := signToken(t, testSecret, claims)

	rec, _ := doRequest(t, jwtAuth, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Статус = %d, ожидается 401 для токена без exp", rec.Code)
	}
}

func TestJWTAuth_WrongIssuer(t *testing.T) {
	jwtAuth := NewJWTAuth(testSecret, testIssuer, 0, testLogger())
	claims := validClaims()
	claims["iss"] = "other-service"
	token := signToken(t, testSecret, claims)

	rec, _ := doRequest(t, jwtAuth, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Статус = %d, ожидается 401 для чужого issuer", rec.Code)
	}
}

func TestJWTAuth_MissingSubject(t *testing.T) {
	jwtAuth := NewJWTAuth(testSecret, testIssuer, 0, testLogger())
	claims := validClaims()
	delete(claims, "sub")
	token := signToken(t, testSecret, claims)

	rec, _ := doRequest(t, jwtAuth, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Статус = %d, ожидается 401 для токена без sub", rec.Code)
	}
}

func TestJWTAuth_WrongAlgorithm(t *testing.T) {
	jwtAuth := NewJWTAuth(testSecret, testIssuer, 0, testLogger())

	// alg=none не принимается
	token := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims())
	s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("Ошибка подписи токена: %v", err)
	}

	rec, _ := doRequest(t, jwtAuth, "Bearer "+s)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Статус = %d, ожидается 401 для alg=none", rec.Code)
	}
}

func TestClaimsFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if claims := ClaimsFromContext(req.Context()); claims != nil {
		t.Errorf("ClaimsFromContext() = %v, ожидается nil", claims)
	}
	if sub := SubjectFromContext(req.Context()); sub != "" {
		t.Errorf("SubjectFromContext() = %q, ожидается пустая строка", sub)
	}
}
