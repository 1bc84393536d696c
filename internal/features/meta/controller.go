package meta

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type MetaController struct {
	MetaService MetaService
}

func NewMetaController(metaService MetaService) *MetaController {
	return &MetaController{
		MetaService: metaService,
	}
}

// ListDocTypes godoc
// @Summary      List doctypes
// @Description  List all doctype definitions
// @Tags         meta
// @Produce      json
// @Success      200  {array} DocType
// @Router       /api/meta [get]
func (ctrl *MetaController) ListDocTypes(c *fiber.Ctx) error {
	doctypes, err := ctrl.MetaService.ListDocTypes(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(doctypes)
}

// GetDocType godoc
// @Summary      Get one doctype
// @Description  Get a doctype definition by name
// @Tags         meta
// @Produce      json
// @Param        doctype path string true "DocType name"
// @Success      200  {object} DocType
// @Failure      404  {string} string "DocType not found"
// @Router       /api/meta/{doctype} [get]
func (ctrl *MetaController) GetDocType(c *fiber.Ctx) error {
	name := c.Params("doctype")

	dt, err := ctrl.MetaService.GetDocType(c.UserContext(), name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "DocType not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(dt)
}
