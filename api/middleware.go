package api

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/ai-court-api/config"
	"github.com/linesmerrill/ai-court-api/models"
)

// Operator is the single account allowed to drive the court API
type Operator struct {
	Email        string
	PasswordHash string
}

var authenticator auth.Authenticator
var cache store.Cache

// tokenTTL bounds how long an issued bearer token stays valid
const tokenTTL = 24 * time.Hour

// Middleware adds basic or bearer authentication around accessing the routes.
// When no operator is configured every request is let through.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authenticator == nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := authenticator.Authenticate(r)
		if err != nil {
			config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, err)
			return
		}
		zap.S().Debugw("operator authenticated", "user", user.UserName(), "url", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// Enabled reports whether operator credentials are configured
func (o Operator) Enabled() bool {
	return o.Email != "" && o.PasswordHash != ""
}

// SetupGoGuardian sets up the go-guardian strategies for the operator. Without
// credentials authentication is switched off.
func (o Operator) SetupGoGuardian() {
	if !o.Enabled() {
		authenticator = nil
		zap.S().Warn("OPERATOR_EMAIL or OPERATOR_PASSWORD_HASH not set, court API is unauthenticated")
		return
	}
	authenticator = auth.New()
	cache = store.NewFIFO(context.Background(), tokenTTL)
	basicStrategy := basic.New(o.ValidateUser, cache)
	tokenStrategy := bearer.New(bearer.NoOpAuthenticate, cache)

	authenticator.EnableStrategy(basic.StrategyKey, basicStrategy)
	authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

// ValidateUser checks basic auth credentials against the operator account
func (o Operator) ValidateUser(ctx context.Context, r *http.Request, email, password string) (auth.Info, error) {
	emailHash := sha256.Sum256([]byte(email))
	expectedHash := sha256.Sum256([]byte(o.Email))
	emailMatch := subtle.ConstantTimeCompare(emailHash[:], expectedHash[:]) == 1

	if err := bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("failed to compare password")
	}
	if !emailMatch {
		return nil, fmt.Errorf("invalid credentials")
	}
	return auth.NewDefaultUser(email, "operator", nil, nil), nil
}

// CreateToken issues a bearer token for an operator that passed basic auth
func (o Operator) CreateToken(w http.ResponseWriter, r *http.Request) {
	email, _, ok := r.BasicAuth()
	if !ok {
		config.ErrorStatus("basic auth failed", http.StatusUnauthorized, w, nil)
		return
	}
	if authenticator == nil {
		config.ErrorStatus("authentication is disabled", http.StatusNotFound, w, nil)
		return
	}

	token := uuid.New().String()
	authUser := auth.NewDefaultUser(email, "operator", nil, nil)
	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	if err := auth.Append(tokenStrategy, token, authUser, r); err != nil {
		config.ErrorStatus("failed to store token", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(models.TokenResponse{Token: token})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// RevokeToken revokes the bearer token on the request
func RevokeToken(w http.ResponseWriter, r *http.Request) {
	reqToken, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || reqToken == "" {
		config.ErrorStatus("missing bearer token", http.StatusBadRequest, w, nil)
		return
	}
	if authenticator != nil {
		tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
		if err := auth.Revoke(tokenStrategy, reqToken, r); err != nil {
			config.ErrorStatus("failed to revoke token", http.StatusInternalServerError, w, err)
			return
		}
	}

	b, _ := json.Marshal(models.RevokeResponse{RevokedToken: reqToken})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
