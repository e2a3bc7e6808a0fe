package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MiguelKingofcodes/project-ppdm/shared/apperr"
	"github.com/MiguelKingofcodes/project-ppdm/shared/cqrs"
	"github.com/MiguelKingofcodes/project-ppdm/shared/middleware"
	"github.com/MiguelKingofcodes/project-ppdm/shared/models"
	"github.com/MiguelKingofcodes/project-ppdm/shared/utils"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	Register(context.Context, cqrs.RegisterUserCommand) (int64, error)
	ResetPassword(context.Context, cqrs.ResetPasswordCommand) error
	UploadProfileImage(context.Context, cqrs.UploadProfileImageCommand) error
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	Login(context.Context, cqrs.LoginQuery) (*models.LoginResult, error)
	CheckEmail(context.Context, cqrs.CheckEmailQuery) error
	CheckSecurityAnswer(context.Context, cqrs.CheckSecurityAnswerQuery) (string, error)
	FetchProfileImage(context.Context, cqrs.FetchProfileImageQuery) ([]byte, error)
	GetProfile(context.Context, cqrs.GetProfileQuery) (*models.UserView, error)
}

// AccountHandler routes requests to the command or query service as appropriate.
type AccountHandler struct {
	commands       AccountCommander
	queries        AccountQuerier
	maxUploadBytes int64
}

type RegisterRequest struct {
	Name             string `json:"name" validate:"required"`
	Email            string `json:"email" validate:"required"`
	Password         string `json:"password" validate:"required,max=72"`
	SecurityQuestion string `json:"securityQuestion" validate:"required"`
	SecurityAnswer   string `json:"securityAnswer" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CheckEmailRequest struct {
	Email string `json:"email" validate:"required"`
}

type CheckSecurityAnswerRequest struct {
	Email            string `json:"email" validate:"required"`
	SecurityQuestion string `json:"securityQuestion" validate:"required"`
	SecurityAnswer   string `json:"securityAnswer" validate:"required"`
}

type ResetPasswordRequest struct {
	Email         string `json:"email" validate:"required"`
	NewPassword   string `json:"newPassword" validate:"required,max=72"`
	RecoveryToken string `json:"recoveryToken"`
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier, maxUploadBytes int64) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries, maxUploadBytes: maxUploadBytes}
}

// bind decodes and validates a JSON body, answering 400 itself on failure.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, apperr.Kind(apperr.ErrValidation), "invalid request body")
		return false
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return false
	}
	return true
}

func (h *AccountHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bind(c, &req) {
		return
	}

	userID, err := h.commands.Register(c.Request.Context(), cqrs.RegisterUserCommand{
		Name:             req.Name,
		Email:            req.Email,
		Password:         req.Password,
		SecurityQuestion: req.SecurityQuestion,
		SecurityAnswer:   req.SecurityAnswer,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "user registered successfully", "userId": userID})
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.queries.Login(c.Request.Context(), cqrs.LoginQuery{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AccountHandler) CheckEmail(c *gin.Context) {
	var req CheckEmailRequest
	if !bind(c, &req) {
		return
	}

	if err := h.queries.CheckEmail(c.Request.Context(), cqrs.CheckEmailQuery{Email: req.Email}); err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "email verified"})
}

func (h *AccountHandler) CheckSecurityAnswer(c *gin.Context) {
	var req CheckSecurityAnswerRequest
	if !bind(c, &req) {
		return
	}

	token, err := h.queries.CheckSecurityAnswer(c.Request.Context(), cqrs.CheckSecurityAnswerQuery{
		Email:            req.Email,
		SecurityQuestion: req.SecurityQuestion,
		SecurityAnswer:   req.SecurityAnswer,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "security answer verified, you may reset the password",
		"recoveryToken": token,
	})
}

func (h *AccountHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bind(c, &req) {
		return
	}

	err := h.commands.ResetPassword(c.Request.Context(), cqrs.ResetPasswordCommand{
		Email:         req.Email,
		NewPassword:   req.NewPassword,
		RecoveryToken: req.RecoveryToken,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "password changed successfully"})
}

// UploadProfileImage accepts multipart/form-data with a userId field and a
// profile_image file.
func (h *AccountHandler) UploadProfileImage(c *gin.Context) {
	if c.Request.ContentLength > h.maxUploadBytes {
		respondTooLarge(c)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondTooLarge(c)
			return
		}
		middleware.RespondWithAppError(c, apperr.Validation("expected multipart form with userId and profile_image"))
		return
	}

	userID, err := strconv.ParseInt(c.Request.FormValue("userId"), 10, 64)
	if err != nil || userID <= 0 {
		middleware.RespondWithAppError(c, apperr.Validation("userId is required"))
		return
	}

	file, header, err := c.Request.FormFile("profile_image")
	if err != nil {
		middleware.RespondWithAppError(c, apperr.Validation("profile_image is required"))
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		middleware.RespondWithAppError(c, apperr.Validation("failed to read profile_image"))
		return
	}

	err = h.commands.UploadProfileImage(c.Request.Context(), cqrs.UploadProfileImageCommand{
		UserID:      userID,
		Image:       image,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "profile image updated successfully"})
}

func (h *AccountHandler) FetchProfileImage(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		middleware.RespondWithAppError(c, apperr.Validation("userId must be a positive integer"))
		return
	}

	image, err := h.queries.FetchProfileImage(c.Request.Context(), cqrs.FetchProfileImageQuery{UserID: userID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.Data(http.StatusOK, utils.PhotoMediaType, image)
}

func (h *AccountHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusUnauthorized, apperr.Kind(apperr.ErrInvalidCredentials), "authentication required")
		return
	}

	view, err := h.queries.GetProfile(c.Request.Context(), cqrs.GetProfileQuery{UserID: userID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func respondTooLarge(c *gin.Context) {
	middleware.RespondWithError(c, http.StatusRequestEntityTooLarge, apperr.Kind(apperr.ErrValidation), "profile image too large")
}
