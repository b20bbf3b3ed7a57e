package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/arnavshah/store-scheduler-api/pkg/airtable"
	"github.com/arnavshah/store-scheduler-api/pkg/auth"
	"github.com/arnavshah/store-scheduler-api/pkg/database"
	"github.com/arnavshah/store-scheduler-api/pkg/traffic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ActivityStore reads and writes the daily activity table
type ActivityStore interface {
	ActivityRecords(ctx context.Context, storeCode string, from, to time.Time) ([]airtable.Record, error)
	Get(ctx context.Context, table, id string) (*airtable.Record, error)
	Create(ctx context.Context, table string, records []airtable.Record) ([]airtable.Record, error)
	Update(ctx context.Context, table string, records []airtable.Record) ([]airtable.Record, error)
}

// SyncRunner runs an HR synchronisation
type SyncRunner interface {
	Run(ctx context.Context, trigger string) (*database.SyncRun, error)
}

// Handler contains dependencies for the route handlers
type Handler struct {
	DB       *gorm.DB
	Auth     *auth.Authenticator
	Activity ActivityStore
	Traffic  traffic.Source
	Syncer   SyncRunner
	Logger   *slog.Logger
}

const claimsKey = "claims"

// SessionMiddleware verifies the session token from the cookie or the
// Authorization header
func (h *Handler) SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(auth.SessionCookie)
		if token == "" {
			token = bearer(c)
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session required"})
			c.Abort()
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// AdminMiddleware only lets administrator sessions through. It must run
// after SessionMiddleware.
func (h *Handler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sessionClaims(c).IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// StoreAccessMiddleware rejects managers reading another store than their own
func (h *Handler) StoreAccessMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")
		if !sessionClaims(c).CanAccessStore(code) {
			c.JSON(http.StatusForbidden, gin.H{"error": "No access to store " + code})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SyncKeyMiddleware verifies the HMAC sync key used by the scheduled sync
func (h *Handler) SyncKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearer(c)
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Sync key required"})
			c.Abort()
			return
		}

		name, err := h.Auth.VerifyHMACKey(key)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid sync key signature"})
			c.Abort()
			return
		}

		c.Set("keyName", name)
		c.Next()
	}
}

// Login checks the credentials and opens a session
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user database.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.Auth.CreateToken(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, token, int(h.Auth.SessionTTL().Seconds()), "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"role":         user.Role,
		"store_code":   user.StoreCode,
	})
}

// Logout clears the session cookie
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the current session
func (h *Handler) Me(c *gin.Context) {
	claims := sessionClaims(c)
	cookie, _ := c.Cookie(auth.SessionCookie)
	c.JSON(http.StatusOK, gin.H{
		"username":   claims.Username,
		"role":       claims.Role,
		"store_code": claims.StoreCode,
		"is_admin":   h.Auth.IsAdminSession(cookie) || claims.IsAdmin(),
	})
}

// CreateUser adds a store manager or administrator
func (h *Handler) CreateUser(c *gin.Context) {
	var req struct {
		Username  string `json:"username" binding:"required"`
		Password  string `json:"password" binding:"required"`
		Role      string `json:"role"`
		StoreCode string `json:"store_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Role == "" {
		req.Role = database.RoleManager
	}
	if req.Role != database.RoleManager && req.Role != database.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be admin or manager"})
		return
	}
	if req.Role == database.RoleManager {
		if req.StoreCode == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "store_code is required for managers"})
			return
		}
		if _, ok := h.store(c, req.StoreCode); !ok {
			return
		}
	}

	hash, err := h.Auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not hash password"})
		return
	}
	user := database.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.Role,
		StoreCode:    normalizeCode(req.StoreCode),
	}
	if err := h.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Could not create user"})
		return
	}
	c.JSON(http.StatusCreated, user)
}

// store loads the store named by code, answering 404 when it does not exist
func (h *Handler) store(c *gin.Context, code string) (*database.Store, bool) {
	s, err := database.StoreByCode(h.DB, normalizeCode(code))
	if err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown store " + code})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load store"})
		}
		return nil, false
	}
	return s, true
}

// activity returns the activity store, answering 503 when Airtable is not configured
func (h *Handler) activity(c *gin.Context) (ActivityStore, bool) {
	if h.Activity == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Airtable is not configured"})
		return nil, false
	}
	return h.Activity, true
}

func (h *Handler) upstreamError(c *gin.Context, what string, err error) {
	h.Logger.Error("upstream request failed", "what", what, "error", err)
	if errors.Is(err, airtable.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "Could not fetch " + what})
}

func sessionClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return &auth.Claims{}
}

func bearer(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	// Strip "Bearer " if present
	if len(token) > 7 && token[:7] == "Bearer " {
		token = token[7:]
	}
	return token
}
