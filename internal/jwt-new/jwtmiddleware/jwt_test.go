package jwtmiddleware_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/linemk/webstore/internal/jwt-new/jwtmiddleware"
	"github.com/stretchr/testify/assert"
)

const testSecret = "testsecret"

// createTestToken создаёт JWT-токен с заданным userID и секретом.
func createTestToken(userID int64, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub": fmt.Sprintf("%d", userID),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func TestJWTMiddleware_MissingAuthorization(t *testing.T) {
	middleware := jwtmiddleware.NewJWTMiddleware(testSecret)
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code, "Expected unauthorized status when no token provided")
	assert.True(t, strings.Contains(rr.Body.String(), "missing token"))
}

func TestJWTMiddleware_InvalidAuthorizationFormat(t *testing.T) {
	middleware := jwtmiddleware.NewJWTMiddleware(testSecret)
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "InvalidFormat")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code, "Expected unauthorized status for invalid token format")
	assert.True(t, strings.Contains(rr.Body.String(), "invalid token format"))
}

func TestJWTMiddleware_InvalidToken(t *testing.T) {
	middleware := jwtmiddleware.NewJWTMiddleware(testSecret)
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer invalid.token.value")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code, "Expected unauthorized status for invalid token")
	assert.True(t, strings.Contains(rr.Body.String(), "invalid token"))
}

func TestJWTMiddleware_WrongSecret(t *testing.T) {
	// Токен, подписанный другим секретом, не должен проходить проверку.
	tokenStr, err := createTestToken(123, "othersecret")
	assert.NoError(t, err)

	middleware := jwtmiddleware.NewJWTMiddleware(testSecret)
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code, "Expected unauthorized status for token signed with wrong secret")
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	// Создаём токен для userID=123.
	tokenStr, err := createTestToken(123, testSecret)
	assert.NoError(t, err)

	var gotUserID int64
	middleware := jwtmiddleware.NewJWTMiddleware(testSecret)
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			http.Error(w, "userID not found", http.StatusInternalServerError)
			return
		}
		gotUserID = userID
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "Expected OK status for valid token")
	assert.Equal(t, int64(123), gotUserID, "Expected userID from token claims")
}

func TestFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), jwtmiddleware.UserIDKey, int64(456))
	userID, ok := jwtmiddleware.FromContext(ctx)
	assert.True(t, ok, "Expected to retrieve userID from context")
	assert.Equal(t, int64(456), userID, "Expected userID to match")
}
