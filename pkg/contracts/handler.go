package contracts

import "github.com/julienschmidt/httprouter"

// Handler is an HTTP feature that mounts its own routes.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Handlers mounts several handlers as one.
type Handlers []Handler

func (hs Handlers) RegisterRoutes(router *httprouter.Router) {
	for _, h := range hs {
		h.RegisterRoutes(router)
	}
}
