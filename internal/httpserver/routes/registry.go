package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/demogen/internal/httpserver/deps"
)

// Registrar mounts one group of endpoints. Each route file registers its
// own from init, so adding an endpoint never touches the router.
type Registrar func(r chi.Router, d deps.Deps)

var registry []Registrar

func Register(reg Registrar) {
	registry = append(registry, reg)
}

// RegisterAll is called once from NewRouter.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, reg := range registry {
		reg(r, d)
	}
}
