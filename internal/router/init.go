package router

import (
	"github.com/capsulevault/timecapsule/internal/application"
	"github.com/capsulevault/timecapsule/internal/container"
	pginfra "github.com/capsulevault/timecapsule/internal/infrastructure/postgres"
	handlers "github.com/capsulevault/timecapsule/internal/interface/http"
	"github.com/capsulevault/timecapsule/internal/router/modules"
)

// InitModules wires repositories, services, and handlers from the container
// singletons and registers every feature module. Called once at startup.
func InitModules(r *Registry) {
	users := pginfra.NewUserRepository(container.GetPGPool())
	capsules := pginfra.NewCapsuleRepository(container.GetPGPool())

	authSvc := application.NewAuthService(users, container.GetJWT(), container.GetLogger())
	capsuleSvc := application.NewCapsuleService(capsules, users, container.GetDispatcher(), container.GetLogger())

	r.Add(modules.NewStatusModule(handlers.NewStatusHandler()))
	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(authSvc, container.GetLogger())))
	r.Add(modules.NewCapsuleModule(handlers.NewCapsuleHandler(capsuleSvc, container.GetLogger()), container.GetJWT()))
}
