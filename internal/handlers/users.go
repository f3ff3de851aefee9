package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"nextlevel/api/internal/middleware"
	"nextlevel/api/internal/pagination"
	"nextlevel/api/internal/response"
	"nextlevel/api/internal/service"
)

func (h HandlerSet) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	params := pagination.New(page, limit)

	users, total, err := h.users.List(c.Request.Context(), params)
	if err != nil {
		response.FromError(c, err)
		return
	}

	payloads := make([]service.Principal, 0, len(users))
	for _, user := range users {
		payloads = append(payloads, service.Payload(user))
	}

	response.OK(c, http.StatusOK, "Users fetched", gin.H{
		"users": payloads,
		"meta":  pagination.MetaFor(total, params),
	})
}

func (h HandlerSet) UploadAvatar(c *gin.Context) {
	claims, ok := middleware.Principal(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()

	avatarURL, err := h.upload.UploadAvatar(c.Request.Context(), claims.UserID, file, header)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Avatar updated", gin.H{
		"avatarUrl": avatarURL,
	})
}
