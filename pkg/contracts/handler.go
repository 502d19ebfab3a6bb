package contracts

import "github.com/julienschmidt/httprouter"

// Handler mounts a route group (meetings API, health checks) on a router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
