package fakeapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/mangashelf/internal/mangaapi"
)

const ctxClaimsKey = "auth_claims"

type user struct {
	ID           string
	Email        string
	PasswordHash []byte
	Role         string
	TokenVersion int
}

type claims struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	TokenVersion int    `json:"tv"`
	jwt.RegisteredClaims
}

type tokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func (ts tokenService) sign(u *user) (string, error) {
	now := time.Now()
	c := claims{
		UserID:       u.ID,
		Email:        u.Email,
		TokenVersion: u.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (ts tokenService) parse(raw string) (*claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.secret, nil
	}, jwt.WithIssuer(ts.issuer))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return c, nil
}

func (s *Server) requireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		cl, err := s.tokens.parse(strings.TrimSpace(h[len("Bearer "):]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		s.mu.RLock()
		u := s.users[normalizeEmail(cl.Email)]
		valid := u != nil && u.ID == cl.UserID && u.TokenVersion == cl.TokenVersion
		s.mu.RUnlock()
		if !valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ctxClaimsKey, cl)
		c.Next()
	}
}

func mustGetClaims(c *gin.Context) *claims {
	v, ok := c.Get(ctxClaimsKey)
	if !ok {
		return nil
	}
	cl, _ := v.(*claims)
	return cl
}

type createUserReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

func (s *Server) createUser(c *gin.Context) {
	var req createUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := normalizeEmail(req.Email)
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[email]; exists {
		c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
		return
	}
	s.users[email] = &user{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         "user",
	}

	s.log.Info("account created", zap.String("email", email))
	c.Status(http.StatusCreated)
}

func (s *Server) login(c *gin.Context) {
	email, password, ok := c.Request.BasicAuth()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing basic credentials"})
		return
	}

	s.mu.RLock()
	u := s.users[normalizeEmail(email)]
	s.mu.RUnlock()

	if u == nil || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	s.issueToken(c, u)
}

func (s *Server) me(c *gin.Context) {
	cl := mustGetClaims(c)

	s.mu.RLock()
	u := s.users[normalizeEmail(cl.Email)]
	s.mu.RUnlock()

	c.JSON(http.StatusOK, mangaapi.Profile{
		ID:       u.ID,
		Email:    u.Email,
		IsActive: true,
		IsAdmin:  u.Role == "admin",
		Role:     u.Role,
	})
}

func (s *Server) refresh(c *gin.Context) {
	cl := mustGetClaims(c)

	s.mu.RLock()
	u := s.users[normalizeEmail(cl.Email)]
	s.mu.RUnlock()

	s.issueToken(c, u)
}

func (s *Server) issueToken(c *gin.Context, u *user) {
	token, err := s.tokens.sign(u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}
	c.JSON(http.StatusOK, mangaapi.Credentials{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(s.tokens.ttl.Seconds()),
	})
}

// RevokeSessions invalidates every token issued to email so far.
func (s *Server) RevokeSessions(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[normalizeEmail(email)]; ok {
		u.TokenVersion++
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
