package supplier

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/restomarket/restomarket/gateway"
	"github.com/restomarket/restomarket/store"
)

const (
	maxLoginAttempts = 10
	loginWindow      = 5 * time.Minute
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a principal and returns a bearer token.
func (s *Service) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.Logger.Printf("the request is wrong: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error(), "code": "bad_request"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if s.tooManyAttempts(c, email) {
		c.JSON(http.StatusTooManyRequests, gin.H{"message": "too many login attempts", "code": "rate_limited"})
		return
	}

	user, err := s.Store.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Logger.Printf("user %s is not found", email)
			c.JSON(http.StatusUnauthorized, gin.H{"message": "wrong email or password", "code": "unauthorized"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "database_error"})
		return
	}
	if !user.ComparePassword(req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "wrong email or password", "code": "unauthorized"})
		return
	}

	token, err := s.Auth.GenerateJWT(*user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "internal_error"})
		return
	}
	c.Header("Authorization", token)
	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

// Me reports the authenticated principal's identity, company id included.
// This is the endpoint clients use to establish who they are; ids surfaced
// here are the ones all other supplier endpoints are scoped by.
func (s *Service) Me(c *gin.Context) {
	userID := gateway.UserIDFromCtx(c)
	user, err := s.Store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "user no longer exists", "code": "unauthorized"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "database_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        user.ID,
		"email":     user.Email,
		"companyId": user.CompanyID,
	})
}

// tooManyAttempts counts login attempts per email in redis. With no redis
// client configured it always allows.
func (s *Service) tooManyAttempts(c *gin.Context, email string) bool {
	if s.Redis == nil {
		return false
	}
	ctx := c.Request.Context()
	key := "login_attempts:" + email
	count, err := s.Redis.Incr(ctx, key).Result()
	if err != nil {
		s.Logger.Printf("redis unavailable, skipping rate limit: %v", err)
		return false
	}
	if count == 1 {
		s.Redis.Expire(ctx, key, loginWindow)
	}
	return count > maxLoginAttempts
}
