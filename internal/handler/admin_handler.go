package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/response"
	"github.com/stemsi/exam-portal-backend/internal/service"
	"github.com/stemsi/exam-portal-backend/internal/validator"
)

const defaultPerPage = 20

// AdminHandler handles the admin user console.
type AdminHandler struct {
	userService *service.UserService
	log         zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(userService *service.UserService, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		userService: userService,
		log:         log.With().Str("component", "admin_handler").Logger(),
	}
}

// ListUsers godoc
// GET /api/v1/admin/users?role=&search=&page=&perPage=
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var f model.UserFilter
	if fields := validator.BindQuery(c, &f); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = defaultPerPage
	}

	users, total, err := h.userService.List(c.Request.Context(), f)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}

	response.Success(c, http.StatusOK, gin.H{
		"users":      users,
		"page":       f.Page,
		"perPage":    f.PerPage,
		"total":      total,
		"totalPages": (total + f.PerPage - 1) / f.PerPage,
	})
}
