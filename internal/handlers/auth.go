package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/onsil/backend/internal/apperrors"
	"github.com/onsil/backend/internal/middleware"
	"github.com/onsil/backend/internal/models"
	"github.com/onsil/backend/internal/repositories"
	"github.com/onsil/backend/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 72 * time.Hour

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	memberRepository repositories.MemberRepository
	firebaseAuth     middleware.TokenVerifier
	jwtSecret        string
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil, which
// disables the Firebase login route.
func NewAuthHandler(memberRepo repositories.MemberRepository, firebaseAuth middleware.TokenVerifier, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		memberRepository: memberRepo,
		firebaseAuth:     firebaseAuth,
		jwtSecret:        jwtSecret,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	if h.firebaseAuth != nil {
		g.POST("/firebase-login", h.FirebaseLogin)
	}
}

// Signup handles local member registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	email := normalizeEmail(req.Email)
	ctx := c.Request().Context()

	// Check if a member with this email already exists
	if _, err := h.memberRepository.GetByEmail(ctx, email); err == nil {
		return echo.NewHTTPError(http.StatusConflict, errorBody("EMAIL_TAKEN", "Member with this email already registered"))
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return httpError(c, err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	member := &models.Member{
		Email:    email,
		Nickname: req.Nickname,
		Password: string(hashedPassword),
	}
	if err := h.memberRepository.Create(ctx, member); err != nil {
		return httpError(c, apperrors.Persistence("create member", err))
	}
	logger.InfoWithFields("member signed up", logger.Fields{"member_id": member.ID, "email": member.Email})

	token, err := h.generateJWT(member)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token after signup")
	}
	return c.JSON(http.StatusCreated, echo.Map{"token": token, "member": member})
}

// SignIn handles local member authentication with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SigninRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	member, err := h.memberRepository.GetByEmail(c.Request().Context(), normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, errorBody("UNAUTHENTICATED", "Invalid email or password"))
		}
		return httpError(c, err)
	}

	// firebase-only members have no local password
	if member.Password == "" || bcrypt.CompareHashAndPassword([]byte(member.Password), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, errorBody("UNAUTHENTICATED", "Invalid email or password"))
	}

	token, err := h.generateJWT(member)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FirebaseLogin verifies a Firebase ID token, upserts the member and issues a local JWT
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, errorBody("UNAUTHENTICATED", "Invalid Firebase ID token"))
	}

	firebaseUID := token.UID
	email, _ := token.Claims["email"].(string)
	email = normalizeEmail(email)
	if email == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, errorBody("UNAUTHENTICATED", "Firebase account has no email"))
	}
	name, _ := token.Claims["name"].(string)

	member, err := h.memberRepository.GetByFirebaseUID(ctx, firebaseUID)
	switch {
	case err == nil:
		// Known firebase account, refresh its details
		member.Email = email
		if name != "" {
			member.Nickname = name
		}
		err = h.memberRepository.Update(ctx, member)
	case errors.Is(err, apperrors.ErrNotFound):
		member, err = h.memberRepository.GetByEmail(ctx, email)
		if err == nil {
			// Existing local account, link it
			member.FirebaseUID = &firebaseUID
			err = h.memberRepository.Update(ctx, member)
		} else if errors.Is(err, apperrors.ErrNotFound) {
			member = &models.Member{Email: email, Nickname: name, FirebaseUID: &firebaseUID}
			err = h.memberRepository.Create(ctx, member)
		}
	}
	if err != nil {
		return httpError(c, apperrors.Persistence("firebase login", err))
	}

	localJWT, err := h.generateJWT(member)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate local JWT")
	}
	return c.JSON(http.StatusOK, echo.Map{"token": localJWT})
}

// generateJWT generates a JWT token for a given member
func (h *AuthHandler) generateJWT(member *models.Member) (string, error) {
	claims := &models.JwtCustomClaims{
		MemberID: member.ID,
		Email:    member.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
