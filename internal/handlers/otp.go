package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nextlevel/api/internal/response"
)

type otpRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h HandlerSet) RequestOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.otp.Request(c.Request.Context(), req.Email); err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, http.StatusOK, "OTP sent successfully.", gin.H{
		"email": req.Email,
	})
}

type otpVerifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

func (h HandlerSet) VerifyOTP(c *gin.Context) {
	var req otpVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.otp.Verify(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		response.FromError(c, err)
		return
	}

	if !result.Success {
		response.Fail(c, http.StatusBadRequest, result.Message)
		return
	}

	response.OK(c, http.StatusOK, result.Message, nil)
}
