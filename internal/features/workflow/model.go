package workflow

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transition is one edge of a document workflow: an action the current
// user may take from a given state, optionally gated by roles and a
// sandboxed condition script.
type Transition struct {
	Action       string   `json:"action" bson:"action"` // button label, e.g. "Approve"
	State        string   `json:"state" bson:"state"`   // state the document must be in
	NextState    string   `json:"next_state" bson:"next_state"`
	AllowedRoles []string `json:"allowed,omitempty" bson:"allowed,omitempty"`
	Condition    string   `json:"condition,omitempty" bson:"condition,omitempty"`
}

// AllowsAnyRole reports whether the transition is open to one of the
// given roles. An empty role list leaves the transition unrestricted.
func (t Transition) AllowsAnyRole(roles []string) bool {
	if len(t.AllowedRoles) == 0 {
		return true
	}
	for _, allowed := range t.AllowedRoles {
		for _, r := range roles {
			if allowed == r {
				return true
			}
		}
	}
	return false
}

// Workflow binds a state field and its transitions to one doctype.
type Workflow struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	DocType     string             `json:"doctype" bson:"doctype"`
	StateField  string             `json:"state_field" bson:"state_field"`
	Transitions []Transition       `json:"transitions" bson:"transitions"`
	IsActive    bool               `json:"is_active" bson:"is_active"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// TransitionsFrom returns the transitions leaving the given state.
func (w *Workflow) TransitionsFrom(state string) []Transition {
	var out []Transition
	for _, t := range w.Transitions {
		if t.State == state {
			out = append(out, t)
		}
	}
	return out
}
