package models

import "strings"

// Docstatus is the document lifecycle marker.
type Docstatus int

const (
	DocstatusDraft     Docstatus = 0
	DocstatusSubmitted Docstatus = 1
	DocstatusCancelled Docstatus = 2
)

// Reserved document keys. Everything else in a Document is schema-driven.
const (
	KeyName      = "name"
	KeyOwner     = "owner"
	KeyDocstatus = "docstatus"
	KeyIsNew     = "__isNew" // set on unsaved documents, stripped before persisting
)

// Document is one business record: an arbitrary key -> value mapping
// shaped by its DocType metadata.
type Document map[string]interface{}

func (d Document) Get(field string) interface{} {
	if d == nil {
		return nil
	}
	return d[field]
}

func (d Document) Name() string {
	s, _ := d.Get(KeyName).(string)
	return s
}

func (d Document) Owner() string {
	s, _ := d.Get(KeyOwner).(string)
	return s
}

// Docstatus returns the lifecycle state, tolerating the numeric types
// JSON and BSON decoding produce.
func (d Document) Docstatus() Docstatus {
	switch v := d.Get(KeyDocstatus).(type) {
	case Docstatus:
		return v
	case int:
		return Docstatus(v)
	case int32:
		return Docstatus(v)
	case int64:
		return Docstatus(v)
	case float64:
		return Docstatus(int(v))
	default:
		return DocstatusDraft
	}
}

// IsNew reports whether the document has never been saved.
func (d Document) IsNew() bool {
	switch v := d.Get(KeyIsNew).(type) {
	case bool:
		return v
	case int:
		return v != 0
	case float64:
		return v != 0
	case string:
		return strings.EqualFold(v, "true") || v == "1"
	default:
		return false
	}
}

// Clone returns a shallow copy. Resolvers never mutate their input, but
// callers that patch values before recomputing should work on a copy.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
