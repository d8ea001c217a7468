package registry

import (
	"log/slog"

	"github.com/gboigwe/StratoLedger/internal/audit"
	"github.com/gboigwe/StratoLedger/internal/platform/middleware"
	"github.com/gboigwe/StratoLedger/internal/registry/handler"
	"github.com/gboigwe/StratoLedger/internal/registry/service"
	"github.com/gboigwe/StratoLedger/internal/registry/store"
)

// Service exposes the registry operation surface.
type Service = service.Service

// Handler wires HTTP endpoints to the registry service.
type Handler = handler.Handler

// NewService constructs the registry service with required dependencies.
func NewService(st store.Store, publisher *audit.Publisher, logger *slog.Logger, opts ...service.Option) (*Service, error) {
	return service.New(st, publisher, logger, opts...)
}

// NewHandler constructs an HTTP handler for the registry routes.
func NewHandler(s *Service, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return handler.New(s, validator, logger)
}
