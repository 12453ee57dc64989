package api

import (
	"github.com/JaimeStill/promptrepo/internal/config"
	"github.com/JaimeStill/promptrepo/internal/console"
	"github.com/JaimeStill/promptrepo/pkg/openapi"
	"github.com/JaimeStill/promptrepo/pkg/routes"
)

func specRoutes(cfg *config.Config) (routes.Group, error) {
	spec := openapi.NewSpec(&cfg.API.OpenAPI, cfg.Version)
	spec.AddServer(cfg.API.BasePath)
	spec.Components.AddSchemas(console.Schemas())
	spec.AddPaths(console.Paths())

	handler, err := spec.Handler()
	if err != nil {
		return routes.Group{}, err
	}

	return routes.Group{
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/openapi.json", Handler: handler},
		},
	}, nil
}
