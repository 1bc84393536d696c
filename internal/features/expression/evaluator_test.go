package expression

import (
	"testing"

	"go-desk/internal/common/models"
)

type captureReporter struct {
	failures []string
}

func (r *captureReporter) EvalFailed(expr string, err error) {
	r.failures = append(r.failures, expr)
}

func TestEvaluateBasics(t *testing.T) {
	doc := models.Document{
		"status":   "Open",
		"qty":      0,
		"total":    1500.0,
		"customer": "ACME",
		"tags":     []interface{}{"a"},
		"empty":    []interface{}{},
		"flag":     true,
	}

	tests := []struct {
		name string
		expr interface{}
		want bool
	}{
		{"nil expression", nil, true},
		{"literal true", true, true},
		{"literal false", false, false},
		{"empty string", "", true},

		// Plain field references resolve by truthiness
		{"field set", "customer", true},
		{"field zero", "qty", false},
		{"field missing", "does_not_exist", false},
		{"field bool", "flag", true},
		{"field array non-empty", "tags", true},
		{"field array empty", "empty", false},

		// eval: expressions
		{"string equality", "eval:doc.status == 'Open'", true},
		{"string inequality", "eval:doc.status != 'Open'", false},
		{"numeric compare", "eval:doc.total > 1000", true},
		{"numeric compare false", "eval:doc.total < 1000", false},
		{"and", "eval:doc.status == 'Open' && doc.total >= 1500", true},
		{"or", "eval:doc.status == 'Closed' || doc.customer == 'ACME'", true},
		{"not", "eval:!doc.qty", true},
		{"bare field ref in eval", "eval:customer", true},
		{"parens", "eval:(doc.qty > 0 || doc.flag) && doc.status == 'Open'", true},
		{"unary minus", "eval:doc.total > -1", true},
		{"loose numeric equality", "eval:doc.qty == '0'", true},

		// builtins
		{"in_list hit", "eval:in_list(doc.status, 'Open', 'Pending')", true},
		{"in_list miss", "eval:in_list(doc.status, 'Closed', 'Cancelled')", false},
		{"flt coercion", "eval:flt(doc.customer) == 0", true},
		{"cint truncation", "eval:cint(3.9) == 3", true},

		// legacy hooks are unsupported and fail open
		{"fn hook", "fn:some_client_script", true},
	}

	e := NewEvaluator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(tt.expr, Context{Doc: doc})
			if got != tt.want {
				t.Errorf("Evaluate(%v) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvaluateFailsOpen(t *testing.T) {
	doc := models.Document{"status": "Open"}

	tests := []string{
		"eval:doc.status ==",       // truncated
		"eval:doc.status = 'Open'", // assignment
		"eval:(doc.status",         // unbalanced
		"eval:unknown_fn(1, 2)",    // no such builtin
		"eval:doc.status < true",   // unorderable operands
		"eval:@#$",                 // garbage
	}

	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			rep := &captureReporter{}
			e := NewEvaluator(rep)
			if got := e.Evaluate(expr, Context{Doc: doc}); !got {
				t.Errorf("Evaluate(%q) = false, want fail-open true", expr)
			}
			if len(rep.failures) != 1 {
				t.Errorf("expected 1 reported failure, got %d", len(rep.failures))
			}
		})
	}
}

func TestEvaluateParentContext(t *testing.T) {
	row := models.Document{"rate": 10.0}
	parent := models.Document{"currency": "EUR"}

	e := NewEvaluator(nil)
	if !e.Evaluate("eval:parent.currency == 'EUR' && doc.rate > 5", Context{Doc: row, Parent: parent}) {
		t.Error("parent reference did not resolve")
	}
	if e.Evaluate("eval:parent.currency == 'USD'", Context{Doc: row, Parent: parent}) {
		t.Error("parent mismatch should be false")
	}
}

func TestEvaluateDeepNestingTerminates(t *testing.T) {
	expr := "eval:"
	for i := 0; i < 200; i++ {
		expr += "("
	}
	expr += "1"
	for i := 0; i < 200; i++ {
		expr += ")"
	}

	rep := &captureReporter{}
	e := NewEvaluator(rep)
	// Must terminate and fail open, not blow the stack
	if got := e.Evaluate(expr, Context{}); !got {
		t.Error("deeply nested expression should fail open")
	}
	if len(rep.failures) != 1 {
		t.Errorf("expected the depth failure to be reported, got %d", len(rep.failures))
	}
}

func TestTruthy(t *testing.T) {
	falsy := []interface{}{nil, false, 0, 0.0, "", []interface{}{}}
	for _, v := range falsy {
		if Truthy(v) {
			t.Errorf("Truthy(%#v) = true, want false", v)
		}
	}
	truthy := []interface{}{true, 1, -1, 0.5, "x", "0", []interface{}{nil}, map[string]interface{}{}}
	for _, v := range truthy {
		if !Truthy(v) {
			t.Errorf("Truthy(%#v) = false, want true", v)
		}
	}
}
