package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	authsvc "storefront/internal/service/auth"
)

const sessionKey = "session"

// requireAuth resolves the bearer token into a session and attaches it
// to the request context.
func (h *handlers) requireAuth(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	session, err := h.deps.AuthSvc.CurrentSession(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		c.Abort()
		return
	}
	c.Set(sessionKey, *session)
	c.Next()
}

// requireAdmin runs after requireAuth and gates on the ADMIN role.
func (h *handlers) requireAdmin(c *gin.Context) {
	session := currentSession(c)
	if !session.IsAdmin() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.Next()
}

func currentSession(c *gin.Context) domain.Session {
	v, _ := c.Get(sessionKey)
	session, _ := v.(domain.Session)
	return session
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func (h *handlers) signup(c *gin.Context) {
	var in authsvc.SignupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	user, err := h.deps.AuthSvc.Signup(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *handlers) login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	user, token, err := h.deps.AuthSvc.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		if err == authsvc.ErrInvalidCredentials {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (h *handlers) logout(c *gin.Context) {
	if err := h.deps.AuthSvc.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	session := currentSession(c)
	c.JSON(http.StatusOK, gin.H{"userId": session.UserID, "role": session.Role})
}
