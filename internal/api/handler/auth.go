package handler

import (
	"crypto/rand"
	"devlinkr/backend/internal/models"
	"devlinkr/backend/internal/storage"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "devlinkr"

var ErrInvalidToken = errors.New("invalid token")

// NewToken signs an HS256 token whose subject is the user's email.
func NewToken(secret []byte, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates tokenString and returns its subject.
func ParseToken(secret []byte, tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// generateOTP returns a random numeric code of the given length.
func generateOTP(length int) (string, error) {
	var sb strings.Builder
	ten := big.NewInt(10)
	for range length {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

type signupRequest struct {
	Name         string   `json:"name" binding:"required"`
	Email        string   `json:"email" binding:"required,email"`
	Password     string   `json:"password" binding:"required,min=6"`
	Bio          string   `json:"bio"`
	TechStack    []string `json:"techStack"`
	Interests    []string `json:"interests"`
	Availability string   `json:"availability"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SendOTP generates a code for an email that is not registered yet.
func (h *Handler) SendOTP(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	email := models.NormalizeIdentity(req.Email)
	ctx := c.Request.Context()

	_, err := h.Store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		c.JSON(http.StatusConflict, gin.H{"msg": "User already exists"})
		return
	case !errors.Is(err, storage.ErrNotFound):
		h.logger.Error("failed to look up user", slog.String("email", email), slog.Any("error", err))
		serverError(c)
		return
	}

	code, err := generateOTP(h.opts.OTPLength)
	if err != nil {
		h.logger.Error("failed to generate otp", slog.Any("error", err))
		serverError(c)
		return
	}
	if err := h.Store.SaveOTP(ctx, email, code, h.opts.OTPTTL); err != nil {
		h.logger.Error("failed to store otp", slog.String("email", email), slog.Any("error", err))
		serverError(c)
		return
	}
	if err := h.Mailer.SendOTP(ctx, email, code); err != nil {
		h.logger.Error("failed to send otp", slog.String("email", email), slog.Any("error", err))
		serverError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "OTP sent"})
}

func (h *Handler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	email := models.NormalizeIdentity(req.Email)

	err := h.Store.VerifyOTP(c.Request.Context(), email, strings.TrimSpace(req.OTP), h.opts.OTPTTL)
	if errors.Is(err, storage.ErrInvalidOTP) {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Invalid or expired OTP"})
		return
	}
	if err != nil {
		h.logger.Error("failed to verify otp", slog.String("email", email), slog.Any("error", err))
		serverError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "Email verified"})
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	email := models.NormalizeIdentity(req.Email)
	ctx := c.Request.Context()

	if h.opts.OTPRequired {
		verified, err := h.Store.IsEmailVerified(ctx, email)
		if err != nil {
			h.logger.Error("failed to check verification", slog.String("email", email), slog.Any("error", err))
			serverError(c)
			return
		}
		if !verified {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Email not verified"})
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", slog.Any("error", err))
		serverError(c)
		return
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Bio:          req.Bio,
		TechStack:    req.TechStack,
		Interests:    req.Interests,
		Availability: req.Availability,
	}
	if err := h.Store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "User already exists"})
			return
		}
		h.logger.Error("failed to create user", slog.String("email", email), slog.Any("error", err))
		serverError(c)
		return
	}

	if h.opts.OTPRequired {
		if err := h.Store.ClearVerification(ctx, email); err != nil {
			h.logger.Warn("failed to clear verification", slog.String("email", email), slog.Any("error", err))
		}
	}

	h.respondWithToken(c, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	email := models.NormalizeIdentity(req.Email)

	user, err := h.Store.GetUserByEmail(c.Request.Context(), email)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "User not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to look up user", slog.String("email", email), slog.Any("error", err))
		serverError(c)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Wrong password"})
		return
	}

	h.respondWithToken(c, user)
}

func (h *Handler) respondWithToken(c *gin.Context, user *models.User) {
	token, err := NewToken(h.opts.JWTSecret, user.Email, h.opts.TokenTTL)
	if err != nil {
		h.logger.Error("failed to sign token", slog.Any("error", err))
		serverError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"name": user.Name, "email": user.Email},
	})
}
