package boot

import (
	"go-desk/internal/config"
	"go-desk/internal/features/meta"
	"go-desk/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type BootController struct {
	MetaService meta.MetaService
	config      *config.Config
}

func NewBootController(metaService meta.MetaService, cfg *config.Config) *BootController {
	return &BootController{
		MetaService: metaService,
		config:      cfg,
	}
}

// doctypeSummary is the listing entry the desk shell renders in its
// navigation; full schemas come from the meta endpoints on demand.
type doctypeSummary struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Module      string `json:"module"`
	Submittable bool   `json:"is_submittable"`
}

// GetBoot godoc
// @Summary      Session bootstrap
// @Description  Everything the client shell needs on startup
// @Tags         boot
// @Produce      json
// @Success      200  {object} map[string]interface{}
// @Router       /api/boot [get]
func (ctrl *BootController) GetBoot(c *fiber.Ctx) error {
	sess := middleware.SessionFromCtx(c)

	doctypes, err := ctrl.MetaService.ListDocTypes(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	summaries := make([]doctypeSummary, 0, len(doctypes))
	for _, dt := range doctypes {
		if dt.IsSystem {
			continue
		}
		summaries = append(summaries, doctypeSummary{
			Name:        dt.Name,
			Label:       dt.Label,
			Module:      dt.Module,
			Submittable: dt.Submittable,
		})
	}

	return c.JSON(fiber.Map{
		"user":        sess.UserID,
		"roles":       sess.Roles,
		"doctypes":    summaries,
		"app_id":      ctrl.config.AppId,
		"environment": ctrl.config.Environment,
	})
}
