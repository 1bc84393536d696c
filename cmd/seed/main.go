package main

import (
	"context"

	"go-desk/internal/common/models"
	"go-desk/internal/config"
	"go-desk/internal/database"
	"go-desk/internal/features/document"
	"go-desk/internal/features/meta"
	"go-desk/internal/features/permission"
	"go-desk/internal/features/workflow"
	"go-desk/internal/logger"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func demoDocTypes() []*meta.DocType {
	return []*meta.DocType{
		{
			Name:   "customer",
			Label:  "Customer",
			Module: "selling",
			Fields: []meta.DocField{
				{Name: "customer_name", Label: "Customer Name", Type: meta.FieldTypeText, Required: true},
				{Name: "email", Label: "Email", Type: meta.FieldTypeEmail},
				{Name: "phone", Label: "Phone", Type: meta.FieldTypePhone},
				{Name: "website", Label: "Website", Type: meta.FieldTypeURL},
				{Name: "is_supplier", Label: "Is also a Supplier", Type: meta.FieldTypeBoolean},
				{
					Name: "supplier_code", Label: "Supplier Code", Type: meta.FieldTypeText,
					DependsOn:   "is_supplier",
					MandatoryIf: "is_supplier",
				},
			},
			Permissions: []meta.DocPerm{
				{
					Role: "Sales User", PermLevel: 0,
					Read: true, Write: true, Create: true, Delete: true,
					Print: true, Email: true, Export: true, Share: true,
				},
				{Role: "Sales Viewer", PermLevel: 0, Read: true, Print: true},
			},
		},
		{
			Name:        "invoice",
			Label:       "Invoice",
			Module:      "selling",
			Submittable: true,
			Fields: []meta.DocField{
				{Name: "customer", Label: "Customer", Type: meta.FieldTypeLookup, Required: true,
					Lookup: &meta.LookupDef{LookupDocType: "customer", LookupLabel: "customer_name", ValueField: "name"}},
				{Name: "posting_date", Label: "Posting Date", Type: meta.FieldTypeDate, Required: true},
				{Name: "status", Label: "Status", Type: meta.FieldTypeText, ReadOnly: true},
				{Name: "totals_section", Label: "Totals", Type: meta.FieldTypeSectionBreak},
				{Name: "grand_total", Label: "Grand Total", Type: meta.FieldTypeCurrency},
				{Name: "discount", Label: "Discount", Type: meta.FieldTypeCurrency,
					DependsOn: "eval:doc.grand_total > 100"},
				{Name: "remarks", Label: "Remarks", Type: meta.FieldTypeTextArea, AllowOnSubmit: true, MaxLength: 500},
				{Name: "margin", Label: "Margin", Type: meta.FieldTypeCurrency, PermLevel: 1},
			},
			Permissions: []meta.DocPerm{
				{
					Role: "Sales User", PermLevel: 0,
					Read: true, Write: true, Create: true, Delete: true,
					Submit: true, Cancel: true, Amend: true,
					Print: true, Email: true, Export: true, Share: true,
				},
				{Role: "Sales Manager", PermLevel: 1, Read: true, Write: true},
				{Role: "Sales User", PermLevel: 1, Read: true},
				{Role: "Customer", PermLevel: 0, IfOwner: true, Read: true, Print: true},
			},
		},
	}
}

func demoWorkflow() *workflow.Workflow {
	return &workflow.Workflow{
		Name:       "invoice-approval",
		DocType:    "invoice",
		StateField: "status",
		IsActive:   true,
		Transitions: []workflow.Transition{
			{Action: "Submit for Review", State: "Draft", NextState: "In Review",
				AllowedRoles: []string{"Sales User"}},
			{Action: "Approve", State: "In Review", NextState: "Approved",
				AllowedRoles: []string{"Sales Manager"},
				Condition:    `doc.grand_total < 10000`},
			{Action: "Escalate", State: "In Review", NextState: "Escalated",
				AllowedRoles: []string{"Sales Manager"},
				Condition:    `doc.grand_total >= 10000`},
			{Action: "Reject", State: "In Review", NextState: "Draft",
				AllowedRoles: []string{"Sales Manager"}},
		},
	}
}

// Seed writes the demo metadata, workflow and a couple of documents,
// then shuts the app down.
func Seed(
	lc fx.Lifecycle,
	metaRepo meta.MetaRepository,
	workflowRepo workflow.WorkflowRepository,
	docRepo document.DocumentRepository,
	log *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						log.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				ctx := context.Background()

				if err := metaRepo.EnsureIndexes(ctx); err != nil {
					log.Error("ensure indexes", zap.Error(err))
					return
				}

				for _, dt := range demoDocTypes() {
					if err := metaRepo.Upsert(ctx, dt); err != nil {
						log.Error("seed doctype", zap.String("doctype", dt.Name), zap.Error(err))
						return
					}
					log.Info("seeded doctype", zap.String("doctype", dt.Name))
				}

				if err := workflowRepo.Upsert(ctx, demoWorkflow()); err != nil {
					log.Error("seed workflow", zap.Error(err))
					return
				}
				log.Info("seeded workflow", zap.String("workflow", "invoice-approval"))

				customer := models.Document{
					models.KeyName:      "CUST-0001",
					models.KeyOwner:     "alice@example.com",
					models.KeyDocstatus: 0,
					"customer_name":     "ACME Corp",
					"email":             "billing@acme.example",
				}
				if err := docRepo.Insert(ctx, "customer", customer); err != nil {
					log.Warn("seed customer skipped", zap.Error(err))
				}

				invoice := models.Document{
					models.KeyName:      "INV-0001",
					models.KeyOwner:     "alice@example.com",
					models.KeyDocstatus: 0,
					"customer":          "CUST-0001",
					"posting_date":      "2026-08-01",
					"status":            "Draft",
					"grand_total":       250.0,
					"margin":            40.0,
				}
				if err := docRepo.Insert(ctx, "invoice", invoice); err != nil {
					log.Warn("seed invoice skipped", zap.Error(err))
				}

				share := permission.DocShare{User: "carol@example.com", Read: true}
				if err := docRepo.AddShare(ctx, "invoice", "INV-0001", share); err != nil {
					log.Error("seed share", zap.Error(err))
					return
				}

				log.Info("Seeding complete")
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			meta.NewMetaRepository,
			workflow.NewWorkflowRepository,
			document.NewDocumentRepository,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	app.Run()
}
