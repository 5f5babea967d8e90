package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/middleware"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/response"
	"github.com/stemsi/exam-portal-backend/internal/service"
	"github.com/stemsi/exam-portal-backend/internal/validator"
)

// ProfileHandler serves the caller's own account.
type ProfileHandler struct {
	userService *service.UserService
	log         zerolog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(userService *service.UserService, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		userService: userService,
		log:         log.With().Str("component", "profile_handler").Logger(),
	}
}

// Get godoc
// GET /api/v1/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	user, err := h.userService.Profile(c.Request.Context(), middleware.GetActor(c).ID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// Update godoc
// PUT /api/v1/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	var req model.UpdateProfileRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), middleware.GetActor(c).ID, &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// UploadPicture godoc
// PUT /api/v1/profile/picture (multipart/form-data, field "file")
// Stores a square thumbnail of the uploaded image as the profile picture.
func (h *ProfileHandler) UploadPicture(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	user, err := h.userService.SetProfilePicture(c.Request.Context(), middleware.GetActor(c).ID, file, header)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// DeletePicture godoc
// DELETE /api/v1/profile/picture
func (h *ProfileHandler) DeletePicture(c *gin.Context) {
	user, err := h.userService.RemoveProfilePicture(c.Request.Context(), middleware.GetActor(c).ID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}
