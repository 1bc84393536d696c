package document

import (
	"context"
	"fmt"

	"go-desk/internal/common/models"
	"go-desk/internal/features/meta"
	"go-desk/internal/features/permission"

	"github.com/xuri/excelize/v2"
)

// ExportDocs builds an xlsx workbook of every document the session may
// list. Columns follow the doctype's data fields in declaration order;
// structural fields never appear.
func (s *DocumentServiceImpl) ExportDocs(ctx context.Context, doctype string, sess models.Session) (*excelize.File, error) {
	dt, err := s.meta.GetDocType(ctx, doctype)
	if err != nil {
		return nil, err
	}

	perms := permission.ResolveDocPermissions(dt, sess.Roles, sess.UserID, "")
	if !perms.Has(permission.CapExport) {
		ownOnly := permission.ResolveDocPermissions(dt, sess.Roles, sess.UserID, sess.UserID)
		if !ownOnly.Has(permission.CapExport) {
			return nil, ErrForbidden
		}
	}

	docs, err := s.ListDocs(ctx, doctype, sess)
	if err != nil {
		return nil, err
	}

	var columns []meta.DocField
	for _, f := range dt.Fields {
		if f.Type.IsData() {
			columns = append(columns, f)
		}
	}

	file := excelize.NewFile()
	sheet := file.GetSheetName(0)

	header := []interface{}{"Name", "Owner", "Docstatus"}
	for _, f := range columns {
		label := f.Label
		if label == "" {
			label = f.Name
		}
		header = append(header, label)
	}
	if err := writeRow(file, sheet, 1, header); err != nil {
		return nil, err
	}

	for i, doc := range docs {
		row := []interface{}{doc.Name(), doc.Owner(), int(doc.Docstatus())}
		for _, f := range columns {
			row = append(row, cellValue(doc.Get(f.Name)))
		}
		if err := writeRow(file, sheet, i+2, row); err != nil {
			return nil, err
		}
	}

	return file, nil
}

func writeRow(file *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return file.SetSheetRow(sheet, cell, &values)
}

// cellValue flattens non-scalar values so the workbook stays readable.
func cellValue(v interface{}) interface{} {
	switch v.(type) {
	case nil:
		return ""
	case string, bool, int, int32, int64, float32, float64:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
