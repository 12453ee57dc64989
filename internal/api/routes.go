package api

import (
	"github.com/JaimeStill/promptrepo/pkg/routes"
)

func routeGroups(domain *Domain) []routes.Group {
	return []routes.Group{
		domain.Console.Routes(),
	}
}
