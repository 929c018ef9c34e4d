package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"banquito/models"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	ctxUserID   contextKey = "userID"
	ctxUsername contextKey = "username"
	ctxRole     contextKey = "role"
)

// tokenTTL is how long an issued token stays valid.
const tokenTTL = 24 * time.Hour

// GenerateToken issues a signed JWT for the user. The role claim drives the
// RequireRole checks downstream.
func GenerateToken(jwtKey []byte, user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     string(user.Role),
		"exp":      time.Now().Add(tokenTTL).Unix(),
		"iat":      time.Now().Unix(),
	}
	if user.MemberID != nil {
		claims["member_id"] = *user.MemberID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// Auth validates the bearer token and stores the caller's identity in the
// request context.
func Auth(jwtKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				http.Error(w, `{"error":"Authorization header is required"}`, http.StatusUnauthorized)
				return
			}
			tokenString = strings.TrimPrefix(tokenString, "Bearer ")

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return jwtKey, nil
			})
			if err != nil || !token.Valid {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, `{"error":"Invalid token claims"}`, http.StatusUnauthorized)
				return
			}
			userID, ok := claims["user_id"].(float64)
			if !ok {
				http.Error(w, `{"error":"Invalid user_id in token"}`, http.StatusUnauthorized)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, ctxUserID, uint(userID))
			if username, ok := claims["username"].(string); ok {
				ctx = context.WithValue(ctx, ctxUsername, username)
			}
			if role, ok := claims["role"].(string); ok {
				ctx = context.WithValue(ctx, ctxRole, models.Role(role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose token does not carry one of the allowed
// roles. Must run after Auth.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := r.Context().Value(ctxRole).(models.Role)
			if !ok {
				http.Error(w, `{"error":"Missing role"}`, http.StatusForbidden)
				return
			}
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, `{"error":"Insufficient permissions"}`, http.StatusForbidden)
		})
	}
}

// UserFromContext returns the authenticated caller's id and username.
func UserFromContext(r *http.Request) (uint, string, error) {
	userID, ok := r.Context().Value(ctxUserID).(uint)
	if !ok {
		return 0, "", fmt.Errorf("user_id not found in context")
	}
	username, _ := r.Context().Value(ctxUsername).(string)
	return userID, username, nil
}
