package meta

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FieldType string

const (
	FieldTypeText         FieldType = "text"
	FieldTypeTextArea     FieldType = "textarea"
	FieldTypeNumber       FieldType = "number"
	FieldTypeCurrency     FieldType = "currency"
	FieldTypeDate         FieldType = "date"
	FieldTypeBoolean      FieldType = "boolean"
	FieldTypeSelect       FieldType = "select"
	FieldTypeMultiSelect  FieldType = "multiselect"
	FieldTypeEmail        FieldType = "email"
	FieldTypePhone        FieldType = "phone"
	FieldTypeURL          FieldType = "url"
	FieldTypeLookup       FieldType = "lookup"
	FieldTypeTable        FieldType = "table"
	FieldTypeSectionBreak FieldType = "section_break"
	FieldTypeColumnBreak  FieldType = "column_break"
)

// IsStructural reports whether the type only shapes the form layout and
// carries no value of its own.
func (t FieldType) IsStructural() bool {
	return t == FieldTypeSectionBreak || t == FieldTypeColumnBreak
}

// IsData reports whether the field holds a value on the document.
func (t FieldType) IsData() bool {
	return !t.IsStructural()
}

type SelectOption struct {
	Label string `json:"label" bson:"label"`
	Value string `json:"value" bson:"value"`
}

type LookupDef struct {
	LookupDocType string `json:"lookup_doctype" bson:"lookup_doctype"` // Target DocType name
	LookupLabel   string `json:"lookup_label" bson:"lookup_label"`     // Target field shown in the UI
	ValueField    string `json:"value_field" bson:"value_field"`       // Target field stored (usually name)
}

// DocField is one field definition in a DocType. The three depends_on
// members are conditional expressions: nil (no condition), a literal
// bool, or a string understood by the expression evaluator.
type DocField struct {
	Name          string         `json:"name" bson:"name"`
	Label         string         `json:"label" bson:"label"`
	Type          FieldType      `json:"type" bson:"type"`
	PermLevel     int            `json:"permlevel" bson:"permlevel"`
	Required      bool           `json:"required" bson:"required"`
	ReadOnly      bool           `json:"read_only" bson:"read_only"`
	Hidden        bool           `json:"hidden" bson:"hidden"`
	AllowOnSubmit bool           `json:"allow_on_submit" bson:"allow_on_submit"`
	DependsOn     interface{}    `json:"depends_on,omitempty" bson:"depends_on,omitempty"`
	MandatoryIf   interface{}    `json:"mandatory_depends_on,omitempty" bson:"mandatory_depends_on,omitempty"`
	ReadOnlyIf    interface{}    `json:"read_only_depends_on,omitempty" bson:"read_only_depends_on,omitempty"`
	MaxLength     int            `json:"max_length,omitempty" bson:"max_length,omitempty"`
	Options       []SelectOption `json:"options,omitempty" bson:"options,omitempty"`
	Lookup        *LookupDef     `json:"lookup,omitempty" bson:"lookup,omitempty"`
	IsSystem      bool           `json:"is_system" bson:"is_system"`
}

// HasCondition reports whether any conditional expression is set.
func (f DocField) HasCondition() bool {
	return f.DependsOn != nil || f.MandatoryIf != nil || f.ReadOnlyIf != nil
}

// DocPerm is one role permission rule. Several rules may exist for the
// same role and level; outcomes are OR-merged by the resolver, never
// overwritten.
type DocPerm struct {
	Role      string `json:"role" bson:"role"`
	PermLevel int    `json:"permlevel" bson:"permlevel"`
	IfOwner   bool   `json:"if_owner" bson:"if_owner"`

	Read   bool `json:"read" bson:"read"`
	Write  bool `json:"write" bson:"write"`
	Create bool `json:"create" bson:"create"`
	Delete bool `json:"delete" bson:"delete"`
	Submit bool `json:"submit" bson:"submit"`
	Cancel bool `json:"cancel" bson:"cancel"`
	Amend  bool `json:"amend" bson:"amend"`
	Print  bool `json:"print" bson:"print"`
	Email  bool `json:"email" bson:"email"`
	Export bool `json:"export" bson:"export"`
	Import bool `json:"import" bson:"import"`
	Share  bool `json:"share" bson:"share"`
}

// DocType is the schema description for one kind of business record.
// Immutable once loaded; the meta service hands out shared pointers.
type DocType struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"` // unique identifier (e.g. "invoice")
	Label       string             `json:"label" bson:"label"`
	Module      string             `json:"module" bson:"module"`
	Submittable bool               `json:"is_submittable" bson:"is_submittable"`
	AllowRename bool               `json:"allow_rename" bson:"allow_rename"`
	IsSystem    bool               `json:"is_system" bson:"is_system"`
	Fields      []DocField         `json:"fields" bson:"fields"`
	Permissions []DocPerm          `json:"permissions" bson:"permissions"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// Field returns the definition for a field name, or nil.
func (dt *DocType) Field(name string) *DocField {
	for i := range dt.Fields {
		if dt.Fields[i].Name == name {
			return &dt.Fields[i]
		}
	}
	return nil
}

// MaxPermLevel returns the highest permission level used by any field
// or permission rule.
func (dt *DocType) MaxPermLevel() int {
	max := 0
	for _, f := range dt.Fields {
		if f.PermLevel > max {
			max = f.PermLevel
		}
	}
	for _, p := range dt.Permissions {
		if p.PermLevel > max {
			max = p.PermLevel
		}
	}
	return max
}

// PermsForRoles returns the rules whose role is in the given set.
func (dt *DocType) PermsForRoles(roles []string) []DocPerm {
	set := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	var out []DocPerm
	for _, p := range dt.Permissions {
		if _, ok := set[p.Role]; ok {
			out = append(out, p)
		}
	}
	return out
}
