package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/devboard/internal/services"
	"github.com/monocle-dev/devboard/internal/utils"
)

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthHandler struct {
	identity *services.IdentityService
}

func NewAuthHandler(identity *services.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

func (h *AuthHandler) CreateUser(ctx *gin.Context) {
	var body services.RegisterInput

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	user, err := h.identity.Register(ctx.Request.Context(), body)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"user_id": user.ID,
		"message": "User registered. Verification email sent.",
	})
}

func (h *AuthHandler) VerifyEmail(ctx *gin.Context) {
	var body VerifyEmailRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	if err := h.identity.VerifyEmail(ctx.Request.Context(), body.Token); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

func (h *AuthHandler) LoginUser(ctx *gin.Context) {
	var body services.LoginInput

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	resp, err := h.identity.Login(ctx.Request.Context(), body)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondUnauthenticated(ctx)
		return
	}

	user, err := h.identity.Me(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) LogoutUser(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondUnauthenticated(ctx)
		return
	}

	if err := h.identity.Logout(ctx.Request.Context(), userID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) ForgotPassword(ctx *gin.Context) {
	var body services.ForgotPasswordInput

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	if err := h.identity.RequestPasswordReset(ctx.Request.Context(), body); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password reset email sent"})
}

func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	var body services.ResetPasswordInput

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	if err := h.identity.ResetPassword(ctx.Request.Context(), body); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

func (h *AuthHandler) RotateKeys(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondUnauthenticated(ctx)
		return
	}

	pair, err := h.identity.RotateKeys(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(ctx *gin.Context) {
	var body RefreshRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	pair, err := h.identity.Refresh(ctx.Request.Context(), body.RefreshToken)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, pair)
}
