package providers

import (
	"github.com/samber/do/v2"

	"github.com/rutapp/rut-server/internal/auth"
	"github.com/rutapp/rut-server/internal/config"
	"github.com/rutapp/rut-server/internal/logger"
	"github.com/rutapp/rut-server/internal/service"
	"github.com/rutapp/rut-server/internal/validation"
)

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideUserService provides the account service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	hasher := do.MustInvoke[*auth.Hasher](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, tokenService, hasher, validator, log.Logger), nil
}

// ProvideItemService provides the item catalog service.
func ProvideItemService(i do.Injector) (*service.ItemService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewItemService(storeHandle.Store, searchService, validator, log.Logger), nil
}

// ProvideRutService provides the rut service.
func ProvideRutService(i do.Injector) (*service.RutService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRutService(storeHandle.Store, searchService, validator, log.Logger), nil
}

// ProvideCollectService provides the collect service.
func ProvideCollectService(i do.Injector) (*service.CollectService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCollectService(storeHandle.Store, searchService, validator, log.Logger), nil
}

// ProvideTagService provides the tagging service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, validator, log.Logger, cfg.Curation.SymmetricUntag), nil
}

// ProvideStarService provides the star service.
func ProvideStarService(i do.Injector) (*service.StarService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStarService(storeHandle.Store, searchService, validator, log.Logger), nil
}

// ProvideAuditService provides the counter audit service.
func ProvideAuditService(i do.Injector) (*service.AuditService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuditService(storeHandle.Store, log.Logger), nil
}
