package handlers

import (
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/todo-grow/backend/internal/constants"
	"github.com/todo-grow/backend/internal/dto"
	apierrors "github.com/todo-grow/backend/internal/errors"
	"github.com/todo-grow/backend/internal/middleware"
	"github.com/todo-grow/backend/internal/services"
	"github.com/todo-grow/backend/internal/utils"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	frontendURL string
}

// NewAuthHandler creates a new AuthHandler. Login results are redirected to frontendURL.
func NewAuthHandler(authService *services.AuthService, frontendURL string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// KakaoLoginURL returns the Kakao consent page URL and remembers its state in the session.
func (h *AuthHandler) KakaoLoginURL(c *gin.Context) {
	state, err := utils.GenerateState()
	if err != nil {
		apierrors.InternalError(c, "Failed to generate login state")
		return
	}

	loginURL, err := h.authService.LoginURL(state)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(constants.SessionKeyState, state)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"login_url": loginURL})
}

// KakaoCallback completes the OAuth flow and redirects to the frontend with an access token.
func (h *AuthHandler) KakaoCallback(c *gin.Context) {
	session := sessions.Default(c)
	expected, _ := session.Get(constants.SessionKeyState).(string)
	session.Delete(constants.SessionKeyState)
	if err := session.Save(); err != nil {
		log.Printf("Warning: failed to clear login state: %v", err)
	}

	if expected == "" || c.Query("state") != expected {
		log.Printf("Kakao login rejected: state mismatch")
		h.redirectLogin(c, url.Values{"error": {"auth_failed"}})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), c.Query("code"))
	if err != nil {
		log.Printf("Kakao login failed: %v", err)
		h.redirectLogin(c, url.Values{"error": {"auth_failed"}})
		return
	}

	h.redirectLogin(c, url.Values{
		"access_token": {result.AccessToken},
		"user_id":      {strconv.FormatUint(result.User.ID, 10)},
		"nickname":     {result.User.Nickname},
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// Withdraw deletes the current user's account and data.
func (h *AuthHandler) Withdraw(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	result, err := h.authService.Withdraw(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	response := gin.H{"message": "User account deleted successfully"}
	if result.Warning != "" {
		response["warning"] = result.Warning
	}
	c.JSON(http.StatusOK, response)
}

func (h *AuthHandler) redirectLogin(c *gin.Context, params url.Values) {
	c.Redirect(http.StatusFound, h.frontendURL+"/login?"+params.Encode())
}
