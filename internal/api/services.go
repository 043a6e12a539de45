package api

import (
	"github.com/rutapp/rut-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Users    *service.UserService
	Items    *service.ItemService
	Ruts     *service.RutService
	Collects *service.CollectService
	Tags     *service.TagService
	Stars    *service.StarService
	Search   *service.SearchService
	Audit    *service.AuditService
}
