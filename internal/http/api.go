package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"credential-server/internal/auth"
	"credential-server/internal/observability"
	"credential-server/internal/service"
)

// Response messages. Login failures share one message so callers cannot tell
// an unknown username from a wrong password.
const (
	msgRegistered         = "User registered successfully"
	msgUsernameTaken      = "Username already exists"
	msgMissingFields      = "Username and password are required"
	msgInvalidBody        = "Invalid request body"
	msgInvalidCredentials = "Invalid credentials"
	msgAuthRequired       = "Authentication required"
	msgInvalidToken       = "Invalid token"
	msgUserNotFound       = "User not found"
	msgRegisterFailed     = "Error registering user"
	msgLoginFailed        = "Error logging in"
	msgProfileFailed      = "Error fetching profile"
	msgInternal           = "Internal server error"
)

// TokenManager issues and verifies session tokens.
type TokenManager interface {
	Issue(userID, username string) (string, error)
	Verify(token string) (*auth.Claims, error)
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users  service.UserService
	tokens TokenManager
	logger *logrus.Logger
}

func NewHandler(users service.UserService, tokens TokenManager, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(recoveryMiddleware(h.logger), requestLogger(h.logger), corsMiddleware())

	router.POST("/register", h.register)
	router.POST("/login", h.login)
	router.GET("/profile", h.requireAuth(), h.profile)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type ProfileResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Message: msgInvalidBody})
		return
	}

	_, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		h.logger.WithField("username", req.Username).Info("user registered")
		c.JSON(http.StatusCreated, messageResponse{Message: msgRegistered})
	case errors.Is(err, service.ErrUserAlreadyExists):
		c.JSON(http.StatusBadRequest, messageResponse{Message: msgUsernameTaken})
	case errors.Is(err, service.ErrMissingCredentials):
		c.JSON(http.StatusBadRequest, messageResponse{Message: msgMissingFields})
	default:
		h.internalError(c, err, msgRegisterFailed)
	}
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	// an empty body is a login without credentials, answered like any other bad login
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, messageResponse{Message: msgInvalidBody})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, messageResponse{Message: msgInvalidCredentials})
			return
		}
		h.internalError(c, err, msgLoginFailed)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		h.internalError(c, err, msgLoginFailed)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) profile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, messageResponse{Message: msgAuthRequired})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, messageResponse{Message: msgUserNotFound})
			return
		}
		h.internalError(c, err, msgProfileFailed)
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{ID: user.ID, Username: user.Username})
}

func (h *Handler) internalError(c *gin.Context, err error, message string) {
	h.logger.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).Error(message)
	observability.CaptureError(err, c.Request.Method, c.FullPath())
	c.JSON(http.StatusInternalServerError, messageResponse{Message: message})
}
