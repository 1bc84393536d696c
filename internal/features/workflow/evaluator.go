package workflow

import (
	"context"
	"time"

	"go-desk/internal/common/models"

	"github.com/d5/tengo/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// ConditionEvaluator decides whether a transition's condition holds for
// a document. Unlike field dependency expressions, conditions gate a
// grant, so failures deny the transition rather than allowing it.
type ConditionEvaluator interface {
	Allowed(condition string, doc models.Document) bool
}

// TengoEvaluator runs transition conditions as Tengo scripts with the
// document bound as `doc`. Scripts are user-authored (by workflow
// designers), so they run with a hard execution deadline.
type TengoEvaluator struct {
	log *zap.Logger
}

func NewTengoEvaluator(log *zap.Logger) ConditionEvaluator {
	return &TengoEvaluator{log: log}
}

const conditionTimeout = 100 * time.Millisecond

func (e *TengoEvaluator) Allowed(condition string, doc models.Document) bool {
	if condition == "" {
		return true
	}

	script := tengo.NewScript([]byte("allowed := (" + condition + ")"))
	if err := script.Add("doc", sanitize(doc)); err != nil {
		e.deny(condition, doc, err)
		return false
	}

	compiled, err := script.Compile()
	if err != nil {
		e.deny(condition, doc, err)
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), conditionTimeout)
	defer cancel()

	if err := compiled.RunContext(ctx); err != nil {
		e.deny(condition, doc, err)
		return false
	}

	allowed := compiled.Get("allowed")
	if allowed == nil {
		return false
	}
	return truthyTengo(allowed.Value())
}

func (e *TengoEvaluator) deny(condition string, doc models.Document, err error) {
	if e.log != nil {
		e.log.Warn("workflow condition denied",
			zap.String("expression", condition),
			zap.String("docname", doc.Name()),
			zap.Error(err),
		)
	}
}

// sanitize converts document values into the subset Tengo understands,
// dropping anything it cannot represent.
func sanitize(doc models.Document) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		switch x := v.(type) {
		case nil:
			out[k] = nil
		case bool, string, int, int64, float64:
			out[k] = x
		case int32:
			out[k] = int64(x)
		case float32:
			out[k] = float64(x)
		case models.Document:
			out[k] = sanitize(x)
		case map[string]interface{}:
			out[k] = sanitize(models.Document(x))
		case bson.M:
			out[k] = sanitize(models.Document(x))
		case bson.A:
			list := make([]interface{}, 0, len(x))
			for _, item := range x {
				if m, ok := item.(bson.M); ok {
					list = append(list, sanitize(models.Document(m)))
				} else {
					list = append(list, item)
				}
			}
			out[k] = list
		case []interface{}:
			list := make([]interface{}, 0, len(x))
			for _, item := range x {
				if m, ok := item.(map[string]interface{}); ok {
					list = append(list, sanitize(models.Document(m)))
				} else {
					list = append(list, item)
				}
			}
			out[k] = list
		}
	}
	return out
}

func truthyTengo(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return false
	}
}
