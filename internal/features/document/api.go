package document

import (
	"go-desk/internal/config"
	"go-desk/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DocumentApi struct {
	Controller *DocumentController
	config     *config.Config
}

func NewDocumentApi(controller *DocumentController, config *config.Config) *DocumentApi {
	return &DocumentApi{
		Controller: controller,
		config:     config,
	}
}

func (a *DocumentApi) Setup(app *fiber.App) {
	api := app.Group("/api")

	doc := api.Group("/doc", middleware.AuthMiddleware(a.config))
	doc.Get("/:doctype", a.Controller.ListDocs)
	doc.Post("/:doctype", a.Controller.CreateDoc)

	// Fixed segments before the :name wildcard.
	doc.Get("/:doctype/new", a.Controller.NewForm)
	doc.Get("/:doctype/export", a.Controller.ExportDocs)
	doc.Post("/:doctype/validate", a.Controller.ValidateDoc)

	doc.Get("/:doctype/:name", a.Controller.GetForm)
	doc.Put("/:doctype/:name", a.Controller.UpdateDoc)
	doc.Delete("/:doctype/:name", a.Controller.DeleteDoc)
	doc.Post("/:doctype/:name/method/:action", a.Controller.RunAction)
}
