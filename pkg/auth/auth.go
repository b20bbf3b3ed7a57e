package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/arnavshah/store-scheduler-api/pkg/database"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SessionCookie is the name of the cookie carrying the session token
const SessionCookie = "session"

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidKey       = errors.New("invalid key format")
	ErrInvalidSignature = errors.New("invalid signature")
)

var jwtAlgorithm = jwt.SigningMethodHS256

// Claims represents the JWT claims of a session
type Claims struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	StoreCode string `json:"store_code,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the session belongs to an administrator
func (c *Claims) IsAdmin() bool {
	return c.Role == database.RoleAdmin
}

// CanAccessStore reports whether the session may read or edit a store
func (c *Claims) CanAccessStore(code string) bool {
	return c.IsAdmin() || strings.EqualFold(c.StoreCode, code)
}

// Authenticator signs session tokens and sync keys
type Authenticator struct {
	jwtSecret    []byte
	masterSecret []byte
	sessionTTL   time.Duration
	bcryptCost   int
}

// New creates an Authenticator. masterSecret signs the HMAC sync keys.
func New(jwtSecret, masterSecret string, sessionTTL time.Duration) *Authenticator {
	return &Authenticator{
		jwtSecret:    []byte(jwtSecret),
		masterSecret: []byte(masterSecret),
		sessionTTL:   sessionTTL,
		bcryptCost:   14,
	}
}

// WithBcryptCost overrides the password hashing cost
func (a *Authenticator) WithBcryptCost(cost int) *Authenticator {
	a.bcryptCost = cost
	return a
}

// SessionTTL returns how long a session token is valid
func (a *Authenticator) SessionTTL() time.Duration {
	return a.sessionTTL
}

// HashPassword hashes a password using bcrypt
func (a *Authenticator) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new session token for a user
func (a *Authenticator) CreateToken(user *database.User) (string, error) {
	expirationTime := time.Now().Add(a.sessionTTL)
	claims := &Claims{
		Username:  user.Username,
		Role:      user.Role,
		StoreCode: user.StoreCode,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(a.jwtSecret)
}

// VerifyToken verifies a session token
func (a *Authenticator) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, ErrInvalidToken
		}
		return a.jwtSecret, nil
	})

	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// IsAdminSession reports whether a session cookie value holds a valid
// administrator token
func (a *Authenticator) IsAdminSession(cookie string) bool {
	if cookie == "" {
		return false
	}
	claims, err := a.VerifyToken(cookie)
	if err != nil {
		return false
	}
	return claims.IsAdmin()
}

// EnsureAdminExists creates the configured admin user if no admin exists
func (a *Authenticator) EnsureAdminExists(db *gorm.DB, username, password string, logger *slog.Logger) error {
	var count int64
	if err := db.Model(&database.User{}).Where("role = ?", database.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := a.HashPassword(password)
	if err != nil {
		return err
	}

	user := database.User{
		Username:     username,
		PasswordHash: hash,
		Role:         database.RoleAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}
	logger.Info("default admin user created", "username", username)
	return nil
}

// GenerateHMACKey creates a signed sync key using HMAC-SHA256
func (a *Authenticator) GenerateHMACKey(name string) string {
	return GenerateHMACKey(a.masterSecret, name)
}

// VerifyHMACKey validates an HMAC-signed sync key and returns its name
func (a *Authenticator) VerifyHMACKey(key string) (string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 || parts[0] == "" {
		return "", ErrInvalidKey
	}

	name := parts[0]
	expected := GenerateHMACKey(a.masterSecret, name)

	// Use constant-time comparison to prevent timing attacks
	if !hmac.Equal([]byte(key), []byte(expected)) {
		return "", ErrInvalidSignature
	}
	return name, nil
}

// GenerateHMACKey signs name with secret, producing "name.signature"
func GenerateHMACKey(secret []byte, name string) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(name))
	return name + "." + hex.EncodeToString(h.Sum(nil))
}
