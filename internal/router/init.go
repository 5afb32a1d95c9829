package router

import (
	"github.com/oksasatya/go-user-relations/internal/container"
	handlers "github.com/oksasatya/go-user-relations/internal/interface/http"
	"github.com/oksasatya/go-user-relations/internal/router/modules"
)

// InitModules builds every feature module from the container and registers it with the registry.
// Call once during startup, before RegisterAll.
func InitModules(r *Registry, c *container.Container) {
	cfg := c.Config
	userHandler := handlers.NewUserHandler(c.Service, c.Relations, c.Logger, cfg.IDLoginEnabled)

	r.Add(modules.NewUserModule(userHandler, c.JWT, c.Redis, c.Logger, cfg.UploadMaxBytes))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(c.Redis, c.Logger))
	}
}
