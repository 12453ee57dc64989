package api

import (
	"github.com/JaimeStill/promptrepo/internal/console"
	"github.com/JaimeStill/promptrepo/internal/prompts"
	"github.com/JaimeStill/promptrepo/internal/repository"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Prompts prompts.System
	Console *console.Handler
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	promptsSystem := prompts.New(
		runtime.Dispatcher,
		runtime.Snapshots,
		runtime.Backend,
		runtime.Apps,
		runtime.DefaultEnvironment,
		repository.Aliases(runtime.Aliases),
		runtime.Logger,
	)

	return &Domain{
		Prompts: promptsSystem,
		Console: console.NewHandler(
			promptsSystem,
			runtime.Sessions,
			runtime.Auth,
			runtime.Cookies,
			runtime.Logger,
			runtime.Pagination,
		),
	}
}
