package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpiry        = 7 * 24 * time.Hour // 7 days
	bcryptCost       = 12
	minPasswordLen   = 4
	minUsernameLen   = 2
	maxUsernameLen   = 16
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
)

// Auth handles optional named accounts. Guests never touch it; logging in
// only attaches a stable display identity to the connection.
type Auth struct {
	db        *DB
	jwtSecret []byte

	// Rate limiting for login attempts (IP -> attempts)
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth creates a new Auth handler
func NewAuth(db *DB) *Auth {
	return &Auth{
		db:        db,
		jwtSecret: loadOrCreateSecret(db),
		rateMap:   make(map[string]*rateEntry),
	}
}

// loadOrCreateSecret loads the JWT secret from the database, or generates
// and persists a new one if none exists.
func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting("jwt_secret"); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting("jwt_secret", hex.EncodeToString(secret)); err != nil {
			log.Warnf("could not persist JWT secret: %v", err)
		}
	}
	return secret
}

// Register creates a new account
func (a *Auth) Register(username, password string) (int64, string, error) {
	username = strings.TrimSpace(username)

	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return 0, "", fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if len(password) < minPasswordLen {
		return 0, "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	exists, err := a.db.UsernameExists(username)
	if err != nil {
		return 0, "", fmt.Errorf("database error")
	}
	if exists {
		return 0, "", fmt.Errorf("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return 0, "", fmt.Errorf("hashing error")
	}

	id, err := a.db.CreateAccount(username, string(hash))
	if err != nil {
		return 0, "", fmt.Errorf("could not create account")
	}

	token, err := a.generateToken(id, username)
	if err != nil {
		return 0, "", fmt.Errorf("token error")
	}
	log.Infof("account registered: %s", username)
	return id, token, nil
}

// Login authenticates an existing account, rate-limited per IP
func (a *Auth) Login(username, password, ip string) (int64, string, error) {
	if !a.allowAttempt(ip) {
		return 0, "", fmt.Errorf("too many login attempts, try again later")
	}

	account, err := a.db.GetAccountByUsername(strings.TrimSpace(username))
	if err != nil {
		return 0, "", fmt.Errorf("database error")
	}
	if account == nil {
		return 0, "", fmt.Errorf("invalid username or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PassHash), []byte(password)) != nil {
		return 0, "", fmt.Errorf("invalid username or password")
	}

	token, err := a.generateToken(account.ID, account.Username)
	if err != nil {
		return 0, "", fmt.Errorf("token error")
	}
	return account.ID, token, nil
}

// ValidateToken resumes a session from a stored token
func (a *Auth) ValidateToken(tokenStr string) (int64, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, "", fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", fmt.Errorf("invalid claims")
	}
	id, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", fmt.Errorf("invalid claims")
	}
	username, ok := claims["name"].(string)
	if !ok {
		return 0, "", fmt.Errorf("invalid claims")
	}
	return int64(id), username, nil
}

func (a *Auth) generateToken(id int64, username string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  id,
		"name": username,
		"iat":  now.Unix(),
		"exp":  now.Add(jwtExpiry).Unix(),
	})
	return token.SignedString(a.jwtSecret)
}

func (a *Auth) allowAttempt(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()
	now := time.Now()
	e, ok := a.rateMap[ip]
	if !ok || now.After(e.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	e.Count++
	return e.Count <= maxLoginAttempts
}
