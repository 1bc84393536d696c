package dependency

import (
	"go-desk/internal/common/models"
	"go-desk/internal/features/expression"
	"go-desk/internal/features/meta"
)

// Override is the computed dependency state for one field.
type Override struct {
	HiddenByDependency bool `json:"hidden_by_dependency,omitempty"`
	Required           bool `json:"required,omitempty"`
	ReadOnly           bool `json:"read_only,omitempty"`
}

// OverrideMap maps field names to their dependency overrides. Fields
// without a conditional expression have no entry; the zero Override is
// the correct answer for them.
type OverrideMap map[string]Override

func (m OverrideMap) For(field string) Override {
	return m[field]
}

// Resolver computes per-field overrides from conditional expressions.
type Resolver struct {
	eval *expression.Evaluator
}

func NewResolver(eval *expression.Evaluator) *Resolver {
	return &Resolver{eval: eval}
}

// Resolve evaluates every conditional field against the current
// document snapshot. A field is hidden when its visibility condition
// does not hold; required and read-only mirror their conditions
// directly. Without a document nothing is hidden or constrained.
func (r *Resolver) Resolve(fields []meta.DocField, doc models.Document) OverrideMap {
	out := make(OverrideMap)
	if doc == nil {
		return out
	}

	ctx := expression.Context{Doc: doc}

	for _, f := range fields {
		if !f.HasCondition() {
			continue
		}

		var ov Override
		if f.DependsOn != nil {
			ov.HiddenByDependency = !r.eval.Evaluate(f.DependsOn, ctx)
		}
		if f.MandatoryIf != nil {
			ov.Required = r.eval.Evaluate(f.MandatoryIf, ctx)
		}
		if f.ReadOnlyIf != nil {
			ov.ReadOnly = r.eval.Evaluate(f.ReadOnlyIf, ctx)
		}
		out[f.Name] = ov
	}

	return out
}
