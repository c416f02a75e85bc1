// api/router.go
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger пишет каждый запрос в slog
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func NewRouter(store *Store, log *slog.Logger) *gin.Engine {
	if log == nil {
		log = slog.Default()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/meta", MetaListHandler(store))
		apiGroup.GET("/meta/:entity", MetaEntityHandler(store))
		apiGroup.GET("/fks", ForeignKeysHandler(store))
		apiGroup.GET("/report", ReportHandler(store))
		apiGroup.GET("/lint", LintHandler(store))
		apiGroup.GET("/ddl", DDLHandler(store))

		apiGroup.POST("/admin/reload", AdminReloadHandler(store))
	}
	return r
}

// RunServer блокируется до ошибки сервера или отмены ctx
func RunServer(ctx context.Context, addr string, store *Store, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	srv := &http.Server{Addr: addr, Handler: NewRouter(store, log)}

	errc := make(chan error, 1)
	go func() {
		log.Info("serving model API", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
