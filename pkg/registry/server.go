package registry

import (
	"context"
	"crypto/rsa"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/depotworks/depot/pkg/database"
	"github.com/depotworks/depot/pkg/storage"
	"github.com/depotworks/depot/pkg/xlog"
)

// Server wires the registry handlers onto their collaborators. The
// configuration is read once at boot and never mutated afterwards.
type Server struct {
	config    *Config
	store     database.Store
	storage   *storage.Storage
	publicKey *rsa.PublicKey
	router    *gin.Engine
}

// New builds a Server from its collaborators.
func New(cfg *Config, store database.Store, st *storage.Storage) (*Server, error) {
	publicKey, err := cfg.PublicKey()
	if err != nil {
		return nil, err
	}
	if err := st.Init(); err != nil {
		return nil, err
	}
	s := &Server{
		config:    cfg,
		store:     store,
		storage:   st,
		publicKey: publicKey,
	}
	s.router = s.buildRouter()
	return s, nil
}

// Handler returns the HTTP handler, used directly by tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	api := router.Group("/api/v1")
	api.GET("/status", s.getStatus)
	api.GET("/version", s.getVersion)

	pkg := api.Group("/package")
	pkg.PUT("", s.authenticate(), s.uploadPackage)
	pkg.GET("", s.listPackages)
	pkg.GET("/:name", s.getPackage)
	// the second segment doubles as the literal "owner" because versions
	// are always valid SemVer strings
	pkg.GET("/:name/:version", s.getVersionOrOwners)
	pkg.GET("/:name/:version/download", s.downloadVersion)
	pkg.PUT("/:name/:version/yank/:flag", s.authenticate(), s.requireOwner(), s.yankVersion)
	pkg.POST("/:name/owner", s.authenticate(), s.requireOwner(), s.addOwner)
	pkg.DELETE("/:name/owner/:email", s.authenticate(), s.requireOwner(), s.removeOwner)

	api.GET("/token", s.authenticate(), s.listTokens)
	api.POST("/token", s.authenticate(), s.createToken)

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully. The temp
// sweeper runs alongside the listener.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Hostname,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.storage.RunSweeper(ctx)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			xlog.C(ctx).Error("server error", "error", err)
		}
	}()
	xlog.C(ctx).Infof("registry listening on %s", s.config.Hostname)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		xlog.C(ctx).Error("server shutdown failed", "error", err)
		return err
	}
	xlog.C(ctx).Info("registry stopped")
	return nil
}
