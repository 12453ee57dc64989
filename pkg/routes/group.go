package routes

import (
	"net/http"

	"github.com/JaimeStill/promptrepo/pkg/middleware"
)

// Route is one method and pattern served by a handler. Pattern is relative
// to the enclosing groups' prefixes.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group organizes routes under a common prefix. Middleware wraps every route
// in the group and its children, outermost first.
type Group struct {
	Prefix     string
	Middleware []func(http.Handler) http.Handler
	Routes     []Route
	Children   []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", nil, group)
	}
}

func registerGroup(mux *http.ServeMux, parentPrefix string, parent middleware.Stack, group Group) {
	fullPrefix := parentPrefix + group.Prefix

	stack := append(middleware.Stack{}, parent...)
	stack.Use(group.Middleware...)

	for _, route := range group.Routes {
		pattern := route.Method + " " + fullPrefix + route.Pattern
		mux.Handle(pattern, stack.Apply(route.Handler))
	}
	for _, child := range group.Children {
		registerGroup(mux, fullPrefix, stack, child)
	}
}
