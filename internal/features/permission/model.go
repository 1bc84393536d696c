package permission

// Cell is one {read, write} entry of the permission matrix.
type Cell struct {
	Read  bool `json:"read"`
	Write bool `json:"write"`
}

// MergeCell ORs two cells. The merge is commutative and associative, so
// rule order can never change the outcome.
func MergeCell(a, b Cell) Cell {
	return Cell{
		Read:  a.Read || b.Read,
		Write: a.Write || b.Write,
	}
}

// Matrix maps permission levels to their merged {read, write} grant.
// Levels above 0 gate field groups only; other capabilities are
// meaningful at level 0 and live in the per-document overlay.
type Matrix map[int]Cell

// Cell returns the entry for a level. A missing level is no permission:
// absent data fails closed.
func (m Matrix) Cell(level int) Cell {
	return m[level]
}

// Capability names one level-0 operation a permission rule can grant.
type Capability string

const (
	CapRead   Capability = "read"
	CapWrite  Capability = "write"
	CapCreate Capability = "create"
	CapDelete Capability = "delete"
	CapSubmit Capability = "submit"
	CapCancel Capability = "cancel"
	CapAmend  Capability = "amend"
	CapPrint  Capability = "print"
	CapEmail  Capability = "email"
	CapExport Capability = "export"
	CapImport Capability = "import"
	CapShare  Capability = "share"
)

// DocPermissions is the server-computed, document-level capability set
// at level 0 (owner-only rules already applied).
type DocPermissions struct {
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

// Has reports whether the capability is granted.
func (p DocPermissions) Has(cap Capability) bool {
	switch cap {
	case CapRead:
		return p.Read
	case CapWrite:
		return p.Write
	case CapCreate:
		return p.Create
	case CapDelete:
		return p.Delete
	case CapSubmit:
		return p.Submit
	case CapCancel:
		return p.Cancel
	case CapAmend:
		return p.Amend
	case CapPrint:
		return p.Print
	case CapEmail:
		return p.Email
	case CapExport:
		return p.Export
	case CapImport:
		return p.Import
	case CapShare:
		return p.Share
	default:
		return false
	}
}

// DocShare is one sharing grant on a document. Grants only ever add
// rights on top of role-based permissions.
type DocShare struct {
	User   string `json:"user" bson:"user"`
	Read   bool   `json:"read" bson:"read"`
	Write  bool   `json:"write" bson:"write"`
	Submit bool   `json:"submit" bson:"submit"`
	Share  bool   `json:"share" bson:"share"`
}

// Grants reports whether this share covers the capability. Write
// implies read, as does submit.
func (s DocShare) Grants(cap Capability) bool {
	switch cap {
	case CapRead:
		return s.Read || s.Write || s.Submit
	case CapWrite:
		return s.Write || s.Submit
	case CapSubmit:
		return s.Submit
	case CapShare:
		return s.Share
	default:
		return false
	}
}

// Overlay (docinfo) is the per-document permission and sharing facts
// supplied alongside a document. A nil or empty overlay grants nothing.
type Overlay struct {
	Permissions *DocPermissions `json:"permissions" bson:"permissions"`
	Shared      []DocShare      `json:"shared" bson:"shared"`
}

// ShareFor returns the sharing entry for a user, or nil.
func (o *Overlay) ShareFor(user string) *DocShare {
	if o == nil || user == "" {
		return nil
	}
	for i := range o.Shared {
		if o.Shared[i].User == user {
			return &o.Shared[i]
		}
	}
	return nil
}

// Allows checks a level-0 capability against the overlay for a user:
// the document permissions decide, and a sharing grant can upgrade the
// answer to true but never downgrade it. Missing permission data fails
// closed.
func (o *Overlay) Allows(cap Capability, user string) bool {
	if o == nil {
		return false
	}
	if o.Permissions != nil && o.Permissions.Has(cap) {
		return true
	}
	if share := o.ShareFor(user); share != nil && share.Grants(cap) {
		return true
	}
	return false
}
