// Package di assembles the application's object graph.
package di

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phishlens/internal/backend"
	"github.com/phishlens/internal/config"
	"github.com/phishlens/internal/consistency"
	"github.com/phishlens/internal/handler"
	"github.com/phishlens/internal/logger"
	"github.com/phishlens/internal/normalize"
	"github.com/phishlens/internal/service"
	"github.com/phishlens/pkg/sanitizer"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

// PreviewLength caps logged email previews.
const PreviewLength = 120

// BuildContainer creates and configures a dependency injection container
// around an already loaded configuration.
func BuildContainer(cfg *config.Config) (*dig.Container, error) {
	container := dig.New()

	providers := []interface{}{
		func() *config.Config { return cfg },

		func(cfg *config.Config) (*zap.Logger, error) {
			return logger.New(cfg.Logging)
		},

		func(cfg *config.Config, logger *zap.Logger) backend.Client {
			if cfg.Backend.MockMode {
				logger.Warn("running in mock mode - backend responses are simulated")
				return backend.NewMockClient(logger)
			}
			return backend.NewHTTPClient(&cfg.Backend, logger)
		},

		func() *sanitizer.Sanitizer { return sanitizer.New(PreviewLength) },

		func(logger *zap.Logger) *consistency.Engine {
			return consistency.NewEngine(consistency.DefaultRules(), logger)
		},

		normalize.New,

		func(client backend.Client, n *normalize.Normalizer, s *sanitizer.Sanitizer, cfg *config.Config, logger *zap.Logger) *service.Dashboard {
			return service.NewDashboard(client, n, s, service.DashboardConfig{DefaultMode: cfg.Dashboard.DefaultMode}, logger)
		},

		func(cfg *config.Config, d *service.Dashboard, logger *zap.Logger) *gin.Engine {
			if !cfg.Logging.Development {
				gin.SetMode(gin.ReleaseMode)
			}
			return handler.NewRouter(cfg, d, logger)
		},

		func(cfg *config.Config, router *gin.Engine) *http.Server {
			return &http.Server{
				Addr:         ":" + cfg.Server.Port,
				Handler:      router,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}
		},
	}

	for _, p := range providers {
		if err := container.Provide(p); err != nil {
			return nil, err
		}
	}

	return container, nil
}
