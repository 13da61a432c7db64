package handler

import (
	"net/http"

	"relay-chat/internal/services"
	"relay-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service *services.AuthService
}

func NewAuthHandler(service *services.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req httpdto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request body", ""))
		return
	}

	u, err := h.service.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.RegisterResponse{
		User: httpdto.UserShort{ID: u.ID, Username: u.Username},
	})
}

func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req httpdto.RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("email and password are required", ""))
		return
	}

	code, err := h.service.RequestOTP(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.RequestOTPResponse{
		Msg:      "OTP sent to your email",
		DebugOTP: code,
	})
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req httpdto.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.OTP == "" {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("email and otp are required", ""))
		return
	}

	token, u, err := h.service.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.VerifyOTPResponse{
		Msg:   "OTP verified.",
		Token: token,
		User:  httpdto.UserShort{ID: u.ID, Username: u.Username},
	})
}
