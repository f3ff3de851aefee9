package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nextlevel/api/internal/middleware"
	"nextlevel/api/internal/response"
	"nextlevel/api/internal/service"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	if h.mailer != nil {
		go func(to, name string) {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := h.mailer.SendWelcome(ctx, to, name); err != nil {
				h.log.Warn().Err(err).Msg("welcome email failed")
			}
		}(user.Email, user.Name)
	}

	response.OK(c, http.StatusCreated, "Registration successful", gin.H{
		"user": service.Payload(user),
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Login successful", gin.H{
		"tokens": result.Tokens,
		"user":   result.User,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h HandlerSet) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	accessToken, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Token refreshed", gin.H{
		"accessToken": accessToken,
	})
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h HandlerSet) Logout(c *gin.Context) {
	var req logoutRequest
	_ = c.ShouldBindJSON(&req) // absent body means already logged out

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Logged out successfully", nil)
}

func (h HandlerSet) LogoutAll(c *gin.Context) {
	claims, ok := middleware.Principal(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.auth.LogoutAll(c.Request.Context(), claims.UserID); err != nil {
		response.FromError(c, err)
		return
	}

	if h.push != nil {
		go func(userID string) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := h.push.Push(ctx, "Signed out", "You were signed out of all devices.", []string{userID}); err != nil {
				h.log.Debug().Err(err).Msg("logout-all push failed")
			}
		}(claims.UserID)
	}

	response.OK(c, http.StatusOK, "Logged out from all devices", nil)
}

func (h HandlerSet) Me(c *gin.Context) {
	claims, ok := middleware.Principal(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.auth.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, http.StatusOK, "User details fetched", gin.H{
		"user": service.Payload(user),
	})
}

func (h HandlerSet) Sessions(c *gin.Context) {
	claims, ok := middleware.Principal(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sessions, err := h.auth.Sessions(c.Request.Context(), claims.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Active sessions fetched", gin.H{
		"sessions": sessions,
	})
}
