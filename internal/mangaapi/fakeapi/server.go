// Package fakeapi is an in-memory implementation of the remote manga service.
// It backs the client tests and can be run standalone for local development
// with cmd/fakeapi.
package fakeapi

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	applog "github.com/mrlokans/mangashelf/internal/logger"
	"github.com/mrlokans/mangashelf/internal/mangaapi"
)

type Config struct {
	JWTSecret string
	TokenTTL  time.Duration

	// AppToken, when set, must accompany every mutating request.
	AppToken string

	// BcryptCost defaults to bcrypt.MinCost to keep tests fast.
	BcryptCost int

	Logger *zap.Logger
}

// Server holds the catalog, accounts and per-user collections in memory.
type Server struct {
	cfg    Config
	tokens tokenService
	log    *zap.Logger
	engine *gin.Engine

	catalog []mangaapi.Manga
	byID    map[int]mangaapi.Manga

	mu          sync.RWMutex
	users       map[string]*user // by lower-cased email
	collections map[string]map[int]*collectionEntry
	failures    map[string]int
}

func New(cfg Config, catalog []mangaapi.Manga) *Server {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 48 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.MinCost
	}

	s := &Server{
		cfg:         cfg,
		tokens:      tokenService{secret: []byte(cfg.JWTSecret), issuer: "mangashelf-fakeapi", ttl: cfg.TokenTTL},
		log:         applog.OrNop(cfg.Logger),
		catalog:     catalog,
		byID:        make(map[int]mangaapi.Manga, len(catalog)),
		users:       make(map[string]*user),
		collections: make(map[string]map[int]*collectionEntry),
		failures:    make(map[string]int),
	}
	for _, m := range catalog {
		s.byID[m.ID] = m
	}

	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.requestLogger(), s.injectFailures())
	s.registerRoutes(s.engine)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes(r *gin.Engine) {
	list := r.Group("/list")
	list.GET("/mangas", s.listMangas)
	list.GET("/genres", s.listVocabulary(mangaapi.VocabularyGenres))
	list.GET("/demographics", s.listVocabulary(mangaapi.VocabularyDemographics))
	list.GET("/themes", s.listVocabulary(mangaapi.VocabularyThemes))
	list.GET("/mangaByGenre/:value", s.listFiltered(mangaapi.FilterGenre))
	list.GET("/mangaByDemographic/:value", s.listFiltered(mangaapi.FilterDemographic))
	list.GET("/mangaByTheme/:value", s.listFiltered(mangaapi.FilterTheme))

	search := r.Group("/search")
	search.GET("/mangasBeginsWith/:term", s.searchBeginsWith)
	search.GET("/mangasContains/:term", s.searchContains)
	search.GET("/manga/:id", s.getManga)

	users := r.Group("/users")
	users.POST("", s.requireAppToken(), s.createUser)
	users.POST("/jwt/login", s.requireAppToken(), s.login)
	users.GET("/jwt/me", s.requireBearer(), s.me)
	users.POST("/jwt/refresh", s.requireAppToken(), s.requireBearer(), s.refresh)

	coll := r.Group("/collection", s.requireBearer())
	coll.GET("/manga", s.listCollection)
	coll.POST("/manga", s.requireAppToken(), s.upsertCollection)
	coll.DELETE("/manga/:id", s.requireAppToken(), s.deleteCollection)
}

// FailPath makes every request whose path starts with prefix answer with
// status until ClearFailures is called.
func (s *Server) FailPath(prefix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[prefix] = status
}

func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]int)
}

func (s *Server) injectFailures() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.RLock()
		var status int
		for prefix, code := range s.failures {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				status = code
				break
			}
		}
		s.mu.RUnlock()

		if status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"error": "injected failure"})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

func (s *Server) requireAppToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.AppToken != "" && c.GetHeader("App-Token") != s.cfg.AppToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid app token"})
			return
		}
		c.Next()
	}
}
