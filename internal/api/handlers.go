package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mockinterview/internal/apperr"
	"mockinterview/internal/auth"
	"mockinterview/internal/models"
	"mockinterview/internal/service/account"
	"mockinterview/internal/service/interview"
)

// Options toggles cookie and CSRF behaviour.
type Options struct {
	CSRF          bool
	SecureCookies bool
}

// Handler wires HTTP routes to the account and interview services.
type Handler struct {
	interviews *interview.Manager
	accounts   *account.Service
	auth       *auth.Service
	logger     *zap.Logger
	opts       Options
}

// NewHandler constructs a Handler instance.
func NewHandler(interviews *interview.Manager, accounts *account.Service, authService *auth.Service, logger *zap.Logger, opts Options) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	useJSONFieldNames()
	return &Handler{
		interviews: interviews,
		accounts:   accounts,
		auth:       authService,
		logger:     logger,
		opts:       opts,
	}
}

func (h *Handler) authorizedUserID(c *gin.Context) (int64, bool) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok || userID <= 0 {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return 0, false
	}
	return userID, true
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.health)

	api := router.Group("/api")
	api.POST("/signup", h.signup)
	api.POST("/login", h.login)

	protected := api.Group("")
	protected.Use(h.auth.Middleware())
	if h.opts.CSRF {
		protected.Use(h.auth.CSRFMiddleware())
	}
	protected.POST("/logout", h.logout)
	protected.GET("/user", h.currentUser)

	iv := protected.Group("/interview")
	iv.POST("/start", h.startInterview)
	iv.POST("/respond", h.respondInterview)
	iv.POST("/end", h.endInterview)
	iv.GET("/session/:id", h.getSession)
	iv.GET("/history", h.listHistory)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"gateway_mode": h.interviews.GatewayMode(),
	})
}

type signupRequest struct {
	FullName        string `json:"fullName" binding:"max=255"`
	Email           string `json:"email" binding:"max=255"`
	Password        string `json:"password" binding:"max=128"`
	ConfirmPassword string `json:"confirmPassword" binding:"max=128"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	user, err := h.accounts.Register(c.Request.Context(), account.SignupInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	authToken, ok := h.startUserSession(c, user)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"message":    "Account created successfully",
		"user":       user,
		"auth_token": authToken,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"max=255"`
	Password string `json:"password" binding:"max=128"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	user, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	authToken, ok := h.startUserSession(c, user)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Login successful",
		"user":       user,
		"auth_token": authToken,
	})
}

func (h *Handler) logout(c *gin.Context) {
	if token, ok := auth.AuthTokenFromContext(c); ok {
		if err := h.auth.RevokeToken(c.Request.Context(), token); err != nil {
			h.respondError(c, apperr.Internal.Wrap(err, "Could not log out"))
			return
		}
	}
	h.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logout successful"})
}

func (h *Handler) currentUser(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	user, err := h.accounts.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// startUserSession issues a token for user and sets the auth and CSRF cookies.
func (h *Handler) startUserSession(c *gin.Context, user *models.User) (string, bool) {
	authToken, err := h.auth.IssueToken(c.Request.Context(), user.ID)
	if err != nil {
		h.respondError(c, apperr.Internal.Wrap(err, "Issue token failed"))
		return "", false
	}
	csrfToken, err := h.auth.NewCSRFToken()
	if err != nil {
		h.respondError(c, apperr.Internal.Wrap(err, "Issue token failed"))
		return "", false
	}
	h.setAuthCookies(c, authToken, csrfToken)
	return authToken, true
}

func (h *Handler) setAuthCookies(c *gin.Context, authToken, csrfToken string) {
	ttl := int(h.auth.TokenTTL().Seconds())
	if ttl <= 0 {
		ttl = 3600
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.auth.AuthCookieName(),
		Value:    authToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   h.opts.SecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.auth.CSRFCookieName(),
		Value:    csrfToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   h.opts.SecureCookies,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	for _, name := range []string{h.auth.AuthCookieName(), h.auth.CSRFCookieName()} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			Path:     "/",
			Secure:   h.opts.SecureCookies,
			HttpOnly: name == h.auth.AuthCookieName(),
			SameSite: http.SameSiteStrictMode,
		})
	}
}
