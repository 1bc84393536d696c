package action

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Provider emits candidate actions for a context. AppliesTo, when set,
// restricts the provider to matching doctypes.
type Provider struct {
	Name      string
	AppliesTo func(doctype string) bool
	Actions   func(ctx *ActionContext) ([]Action, error)
}

// Registry composes providers into manifests. It is an explicit value
// assembled at startup and injected where needed; registration order
// is the composition order.
type Registry struct {
	providers []Provider
	log       *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{log: log}
}

func (r *Registry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

// BuildManifest invokes every applicable provider in registration
// order, drops actions whose requirements do not hold, and returns a
// deterministically ordered list. A failing provider is skipped and
// reported; it never aborts the other providers.
func (r *Registry) BuildManifest(ctx *ActionContext) []Action {
	var manifest []Action

	doctype := ""
	if ctx.DocType != nil {
		doctype = ctx.DocType.Name
	}

	for _, p := range r.providers {
		if p.AppliesTo != nil && !p.AppliesTo(doctype) {
			continue
		}

		actions, err := r.invoke(p, ctx)
		if err != nil {
			if r.log != nil {
				r.log.Warn("action provider failed",
					zap.String("provider", p.Name),
					zap.String("doctype", doctype),
					zap.Error(err),
				)
			}
			continue
		}

		for _, a := range actions {
			if a.Allowed(ctx) {
				manifest = append(manifest, a)
			}
		}
	}

	sortActions(manifest)
	return manifest
}

// invoke isolates provider failures, panics included.
func (r *Registry) invoke(p Provider, ctx *ActionContext) (actions []Action, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			actions = nil
			err = fmt.Errorf("provider panic: %v", rec)
		}
	}()
	return p.Actions(ctx)
}

// sortActions orders primary actions first, then ascending priority,
// then label, then id. The full chain makes the order total, so
// recomputation with identical inputs is byte-stable.
func sortActions(actions []Action) {
	sort.SliceStable(actions, func(i, j int) bool {
		a, b := actions[i], actions[j]
		if a.Primary != b.Primary {
			return a.Primary
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.ID < b.ID
	})
}
