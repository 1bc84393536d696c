package document

import (
	"errors"
	"fmt"

	"go-desk/internal/common/models"
	"go-desk/internal/features/meta"
	"go-desk/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DocumentController struct {
	DocumentService DocumentService
}

func NewDocumentController(documentService DocumentService) *DocumentController {
	return &DocumentController{
		DocumentService: documentService,
	}
}

// respondError maps the service's sentinel errors onto HTTP statuses.
// A failed validation is not an error to the transport: it comes back
// as 417 with the full finding list so the client can mark fields.
func respondError(c *fiber.Ctx, err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusExpectationFailed).JSON(verr.Result)
	case errors.Is(err, ErrNotFound), errors.Is(err, meta.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, ErrActionUnknown):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, ErrNotExecutable):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}

func parseDoc(c *fiber.Ctx) (models.Document, error) {
	var doc models.Document
	if err := c.BodyParser(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocs godoc
// @Summary      List documents
// @Description  List the documents of a doctype the user may read
// @Tags         document
// @Produce      json
// @Param        doctype path string true "DocType name"
// @Success      200  {array} models.Document
// @Router       /api/doc/{doctype} [get]
func (ctrl *DocumentController) ListDocs(c *fiber.Ctx) error {
	sess := middleware.SessionFromCtx(c)

	docs, err := ctrl.DocumentService.ListDocs(c.UserContext(), c.Params("doctype"), sess)
	if err != nil {
		return respondError(c, err)
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return c.JSON(docs)
}

// NewForm godoc
// @Summary      Blank form
// @Description  Form payload for a document that is not saved yet
// @Tags         document
// @Produce      json
// @Param        doctype path string true "DocType name"
// @Success      200  {object} FormPayload
// @Router       /api/doc/{doctype}/new [get]
func (ctrl *DocumentController) NewForm(c *fiber.Ctx) error {
	sess := middleware.SessionFromCtx(c)

	payload, err := ctrl.DocumentService.NewForm(c.UserContext(), c.Params("doctype"), sess)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payload)
}

// GetForm godoc
// @Summary      Get a document form
// @Description  Document plus permissions, field statuses and actions
// @Tags         document
// @Produce      json
// @Param        doctype path string true "DocType name"
// @Param        name path string true "Document name"
// @Success      200  {object} FormPayload
// @Failure      403  {string} string "Not permitted"
// @Failure      404  {string} string "Not found"
// @Router       /api/doc/{doctype}/{name} [get]
func (ctrl *DocumentController) GetForm(c *fiber.Ctx) error {
	sess := middleware.SessionFromCtx(c)

	payload, err := ctrl.DocumentService.GetForm(c.UserContext(), c.Params("doctype"), c.Params("name"), sess)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payload)
}

// CreateDoc godoc
// @Summary      Create a document
// @Tags         document
// @Accept       json
// @Produce      json
// @Param        doctype path string true "DocType name"
// @Success      201  {object} FormPayload
// @Failure      417  {object} validation.Result "Validation findings"
// @Router       /api/doc/{doctype} [post]
func (ctrl *DocumentController) CreateDoc(c *fiber.Ctx) error {
	sess := middleware.SessionFromCtx(c)

	doc, err := parseDoc(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	payload, err := ctrl.DocumentService.CreateDoc(c.UserContext(), c.Params("doctype"), doc, sess)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(payload)
}

// UpdateDoc godoc
// @Summary      Update a document
// @Tags         document
// @Accept       json
// @Produce      json
// @Param        doctype path string true "DocType name"
// @Param        name path string true "Document name"
// @Success      200  {object} FormPayload
// @Failure      417  {object} validation.Result "Validation findings"
// @Router       /api/doc/{doctype}/{name} [put]
func (ctrl *DocumentController) UpdateDoc(c *fiber.Ctx) error {
	sess := middleware.SessionFromCtx(c)

	doc, err := parseDoc(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	payload, err := ctrl.DocumentService.UpdateDoc(c.UserContext(), c.Params("doctype"), c.Params("name"), doc, sess)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payload)
}

// DeleteDoc godoc
// @Summary      Delete a document
// @Tags         document
// @Param        doctype path string true "DocType name"
// @Param        name path string true "Document name"
// @Success      200  {object} map[string]interface{}
// @Router       /api/doc/{doctype}/{name} [delete]
func (ctrl *DocumentController) DeleteDoc(c *fiber.Ctx) error {
	sess := middleware.SessionFromCtx(c)

	_, err := ctrl.DocumentService.RunAction(c.UserContext(), c.Params("doctype"), c.Params("name"), "delete", sess)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// RunAction godoc
// @Summary      Run a document action
// @Description  Executes a manifest action and returns the refreshed form
// @Tags         document
// @Produce      json
// @Param        doctype path string true "DocType name"
// @Param        name path string true "Document name"
// @Param        action path string true "Action id"
// @Success      200  {object} FormPayload
// @Failure      404  {string} string "Unknown action"
// @Router       /api/doc/{doctype}/{name}/method/{action} [post]
func (ctrl *DocumentController) RunAction(c *fiber.Ctx) error {
	sess := middleware.SessionFromCtx(c)

	payload, err := ctrl.DocumentService.RunAction(c.UserContext(), c.Params("doctype"), c.Params("name"), c.Params("action"), sess)
	if err != nil {
		return respondError(c, err)
	}
	if payload == nil {
		return c.JSON(fiber.Map{"ok": true})
	}
	return c.JSON(payload)
}

// ValidateDoc godoc
// @Summary      Validate without saving
// @Tags         document
// @Accept       json
// @Produce      json
// @Param        doctype path string true "DocType name"
// @Success      200  {object} validation.Result
// @Router       /api/doc/{doctype}/validate [post]
func (ctrl *DocumentController) ValidateDoc(c *fiber.Ctx) error {
	sess := middleware.SessionFromCtx(c)

	doc, err := parseDoc(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := ctrl.DocumentService.ValidateDoc(c.UserContext(), c.Params("doctype"), doc, sess)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// ExportDocs godoc
// @Summary      Export documents as xlsx
// @Tags         document
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        doctype path string true "DocType name"
// @Success      200  {file} binary
// @Router       /api/doc/{doctype}/export [get]
func (ctrl *DocumentController) ExportDocs(c *fiber.Ctx) error {
	sess := middleware.SessionFromCtx(c)
	doctype := c.Params("doctype")

	file, err := ctrl.DocumentService.ExportDocs(c.UserContext(), doctype, sess)
	if err != nil {
		return respondError(c, err)
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.xlsx"`, doctype))
	return c.Send(buf.Bytes())
}
