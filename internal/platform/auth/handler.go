package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/passcode", h.Exists)
	r.PUT("/passcode", RequireAuthOnceConfigured(svc), h.Set)
	r.POST("/passcode/sessions", h.Login)
}

type PasscodeRequest struct {
	Passcode string `json:"passcode" binding:"required"`
}

type SetPasscodeRequest struct {
	Passcode string `json:"passcode" binding:"required"`
	Confirm  string `json:"confirm" binding:"required"`
}

type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) Exists(c *gin.Context) {
	ok, err := h.svc.ExistPasscode(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "passcode lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"configured": ok})
}

func (h *Handler) Set(c *gin.Context) {
	var req SetPasscodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Passcode != req.Confirm {
		c.JSON(http.StatusBadRequest, gin.H{"error": "confirm passcode does not match new passcode"})
		return
	}
	if err := h.svc.NewPasscode(c.Request.Context(), req.Passcode); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "passcode update failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Login(c *gin.Context) {
	var req PasscodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, exp, err := h.svc.Login(c.Request.Context(), req.Passcode)
	if err != nil {
		if errors.Is(err, ErrWrongPasscode) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "passcode incorrect"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Token: token, ExpiresAt: exp})
}
