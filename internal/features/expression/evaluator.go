package expression

import (
	"strings"

	"go.uber.org/zap"
)

// Expression markers. A plain string without a marker is a field-name
// reference; "eval:" runs the restricted interpreter; "fn:" names a
// legacy script hook this engine does not support.
const (
	EvalPrefix = "eval:"
	FnPrefix   = "fn:"
)

// Reporter receives evaluation failures. Failures are never thrown to
// the caller: a broken condition fails open and must only be observed.
type Reporter interface {
	EvalFailed(expr string, err error)
}

// ZapReporter reports evaluation failures through the application logger.
type ZapReporter struct {
	Log *zap.Logger
}

func (r ZapReporter) EvalFailed(expr string, err error) {
	r.Log.Warn("conditional expression failed",
		zap.String("expression", expr),
		zap.Error(err),
	)
}

// Evaluator decides declarative boolean conditions against a document
// context. It is pure and performs no I/O; reporting failures is its
// only collaborator.
type Evaluator struct {
	reporter Reporter
}

func NewEvaluator(reporter Reporter) *Evaluator {
	return &Evaluator{reporter: reporter}
}

// Evaluate resolves an expression to a boolean.
//
// No condition means the condition is satisfied: nil evaluates to true.
// Literal booleans evaluate to themselves. Unmarked strings are field
// references resolved by document truthiness. "eval:" strings run the
// restricted interpreter and fail open: any lex, parse or evaluation
// error is reported and the result is true, so a broken expression can
// never hide a field. "fn:" hooks are unsupported and also fail open.
func (e *Evaluator) Evaluate(expr interface{}, ctx Context) bool {
	switch v := expr.(type) {
	case nil:
		return true

	case bool:
		return v

	case string:
		if v == "" {
			return true
		}
		if strings.HasPrefix(v, FnPrefix) {
			return true
		}
		if src, ok := strings.CutPrefix(v, EvalPrefix); ok {
			return e.evalSource(v, src, ctx)
		}
		return Truthy(ctx.Doc.Get(v))

	default:
		return Truthy(v)
	}
}

func (e *Evaluator) evalSource(full, src string, ctx Context) bool {
	ast, err := parse(src)
	if err != nil {
		e.report(full, err)
		return true
	}
	result, err := ast.eval(ctx)
	if err != nil {
		e.report(full, err)
		return true
	}
	return Truthy(result)
}

func (e *Evaluator) report(expr string, err error) {
	if e.reporter != nil {
		e.reporter.EvalFailed(expr, err)
	}
}
