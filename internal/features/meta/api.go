package meta

import (
	"go-desk/internal/config"
	"go-desk/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type MetaApi struct {
	Controller *MetaController
	config     *config.Config
}

func NewMetaApi(controller *MetaController, config *config.Config) *MetaApi {
	return &MetaApi{
		Controller: controller,
		config:     config,
	}
}

func (a *MetaApi) Setup(app *fiber.App) {
	api := app.Group("/api")

	metaGroup := api.Group("/meta", middleware.AuthMiddleware(a.config))
	metaGroup.Get("/", a.Controller.ListDocTypes)
	metaGroup.Get("/:doctype", a.Controller.GetDocType)
}
