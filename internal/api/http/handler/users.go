package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dtroode/vidtube-accounts/internal/api/http/middleware"
	"github.com/dtroode/vidtube-accounts/internal/api/http/response"
	"github.com/dtroode/vidtube-accounts/internal/apperror"
	"github.com/dtroode/vidtube-accounts/internal/logger"
	"github.com/dtroode/vidtube-accounts/internal/model"
	"github.com/dtroode/vidtube-accounts/internal/service"
)

// SessionService runs the credential lifecycle.
type SessionService interface {
	AuthenticateAny(ctx context.Context, identifiers []string, secret string) (model.CredentialPair, model.Account, error)
	Rotate(ctx context.Context, presented string) (model.CredentialPair, error)
	Logout(ctx context.Context, accountID uuid.UUID) error
	ChangeSecret(ctx context.Context, accountID uuid.UUID, oldSecret, newSecret string) error
}

// AccountService creates and reads accounts.
type AccountService interface {
	Register(ctx context.Context, params service.RegisterParams) (model.Account, error)
	Current(ctx context.Context, accountID uuid.UUID) (model.Account, error)
}

// Users serves the /users endpoints.
type Users struct {
	session        SessionService
	accounts       AccountService
	contextManager model.ContextManager
	cookies        *Cookies
	maxUploadBytes int64
	logger         *logger.Logger
}

func NewUsers(
	session SessionService,
	accounts AccountService,
	contextManager model.ContextManager,
	cookies *Cookies,
	maxUploadBytes int64,
	logger *logger.Logger,
) *Users {
	return &Users{
		session:        session,
		accounts:       accounts,
		contextManager: contextManager,
		cookies:        cookies,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Register handles POST /register with a multipart form.
func (h *Users) Register(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	if _, err := c.MultipartForm(); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, &apperror.APIError{Status: http.StatusRequestEntityTooLarge, Message: "upload is too large"})
			return
		}
		response.Error(c, apperror.NewErrValidation("invalid multipart form"))
		return
	}

	avatar, closeAvatar, err := formUpload(c, "avatar")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeAvatar()

	cover, closeCover, err := formUpload(c, "coverImage")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeCover()

	account, err := h.accounts.Register(c.Request.Context(), service.RegisterParams{
		FullName:   c.PostForm("fullname"),
		Email:      c.PostForm("email"),
		Username:   c.PostForm("username"),
		Password:   c.PostForm("password"),
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "user registered successfully", newAccountView(account))
}

// Login handles POST /login.
func (h *Users) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.NewErrValidation("invalid request body"))
		return
	}

	// Username is tried first; a login carrying both still succeeds when only the email matches.
	pair, account, err := h.session.AuthenticateAny(c.Request.Context(), []string{req.Username, req.Email}, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cookies.Set(c, pair)
	response.Success(c, http.StatusOK, "user logged in successfully", loginResponse{
		User:         newAccountView(account),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// RefreshToken handles POST /refresh-token. The refresh token is read from
// the refreshToken cookie and falls back to the JSON body.
func (h *Users) RefreshToken(c *gin.Context) {
	presented, err := c.Cookie(RefreshTokenCookie)
	if err != nil || presented == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Error(c, apperror.NewErrValidation("invalid request body"))
			return
		}
		presented = req.RefreshToken
	}

	pair, err := h.session.Rotate(c.Request.Context(), presented)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cookies.Set(c, pair)
	response.Success(c, http.StatusOK, "access token refreshed", tokensResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout handles POST /logout.
func (h *Users) Logout(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	if err := h.session.Logout(c.Request.Context(), accountID); err != nil {
		response.Error(c, err)
		return
	}

	h.cookies.Clear(c)
	response.Success(c, http.StatusOK, "user logged out", gin.H{})
}

// ChangePassword handles POST /change-password.
func (h *Users) ChangePassword(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.NewErrValidation("invalid request body"))
		return
	}

	if err := h.session.ChangeSecret(c.Request.Context(), accountID, req.OldPassword, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "password changed successfully", gin.H{})
}

// CurrentUser handles GET /current-user.
func (h *Users) CurrentUser(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	account, err := h.accounts.Current(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "current user fetched successfully", newAccountView(account))
}

func (h *Users) accountID(c *gin.Context) (uuid.UUID, bool) {
	accountID, ok := h.contextManager.GetAccountIDFromContext(c.Request.Context())
	if !ok {
		h.logger.Error("Users handler: account id missing from authenticated request",
			"request_id", c.GetString(middleware.RequestIDKey),
			"path", c.Request.URL.Path)
		response.Error(c, apperror.NewErrMissingAuthorizationToken())
		return uuid.Nil, false
	}
	return accountID, true
}

// formUpload opens the file in field. A missing file yields a nil upload.
func formUpload(c *gin.Context, field string) (*model.Upload, func(), error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, apperror.NewErrValidation("invalid " + field + " file")
	}

	file, err := header.Open()
	if err != nil {
		return nil, func() {}, apperror.NewErrInternal(err)
	}

	return &model.Upload{
		Filename:    header.Filename,
		ContentType: contentType(header),
		Size:        header.Size,
		Reader:      file,
	}, func() { _ = file.Close() }, nil
}

func contentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
