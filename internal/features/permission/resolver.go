package permission

import (
	"go-desk/internal/common/models"
	"go-desk/internal/features/meta"
)

// Resolve computes the role-derived permission matrix for one doctype.
//
// Level 0 is always present, seeded with no permission. The reserved
// Administrator identity or role short-circuits rule evaluation with
// full read/write for every level the metadata uses (plus one spare
// level, so an out-of-range field still resolves). Otherwise every rule
// matching the user's roles is OR-merged into its level: a grant from
// any role wins, and no rule can take a grant away.
func Resolve(dt *meta.DocType, roles []string, userID string) Matrix {
	matrix := Matrix{0: {}}
	if dt == nil {
		return matrix
	}

	session := models.Session{UserID: userID, Roles: roles}
	if session.IsAdministrator() {
		for level := 0; level <= dt.MaxPermLevel()+1; level++ {
			matrix[level] = Cell{Read: true, Write: true}
		}
		return matrix
	}

	for _, rule := range dt.PermsForRoles(roles) {
		cell := Cell{Read: rule.Read, Write: rule.Write}
		matrix[rule.PermLevel] = MergeCell(matrix[rule.PermLevel], cell)
	}

	return matrix
}

// ResolveDocPermissions computes the document-level capability set the
// overlay carries: all level-0 rules for the user's roles OR-merged,
// with owner-only rules counting only when the user owns the document.
// This is the server-side half of the owner-only story; the compiler
// and the manifest consume its output through the overlay.
func ResolveDocPermissions(dt *meta.DocType, roles []string, userID, owner string) *DocPermissions {
	perms := &DocPermissions{}
	if dt == nil {
		return perms
	}

	session := models.Session{UserID: userID, Roles: roles}
	if session.IsAdministrator() {
		return &DocPermissions{
			Read: true, Write: true, Create: true, Delete: true,
			Submit: true, Cancel: true, Amend: true, Print: true,
			Email: true, Export: true, Import: true, Share: true,
		}
	}

	for _, rule := range dt.PermsForRoles(roles) {
		if rule.PermLevel != 0 {
			continue
		}
		if rule.IfOwner && owner != userID {
			continue
		}
		perms.Read = perms.Read || rule.Read
		perms.Write = perms.Write || rule.Write
		perms.Create = perms.Create || rule.Create
		perms.Delete = perms.Delete || rule.Delete
		perms.Submit = perms.Submit || rule.Submit
		perms.Cancel = perms.Cancel || rule.Cancel
		perms.Amend = perms.Amend || rule.Amend
		perms.Print = perms.Print || rule.Print
		perms.Email = perms.Email || rule.Email
		perms.Export = perms.Export || rule.Export
		perms.Import = perms.Import || rule.Import
		perms.Share = perms.Share || rule.Share
	}

	return perms
}
