package boot

import (
	"go-desk/internal/config"
	"go-desk/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type BootApi struct {
	Controller *BootController
	config     *config.Config
}

func NewBootApi(controller *BootController, config *config.Config) *BootApi {
	return &BootApi{
		Controller: controller,
		config:     config,
	}
}

func (a *BootApi) Setup(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/boot", middleware.AuthMiddleware(a.config), a.Controller.GetBoot)
}
