package policy

import (
	"github.com/hospitalward/ward-api/internal/model"
)

// ResolveUser computes the field policy for the account console.
// Superusers edit everything; Managers may additionally toggle
// activation and role membership; everyone else edits only their own
// profile basics. Accounts are never created or deleted through the
// console, so no rule grants those.
func ResolveUser(actor model.Actor, user *model.User) Policy {
	visible := userFields()
	if actor.IsSuperuser {
		return Policy{Visible: visible, Editable: visible.clone()}
	}

	readOnly := baseUserReadOnly()
	if actor.HasRole(model.RoleManagers) {
		readOnly.remove(FieldIsActive, FieldRoles)
	}

	editable := newFieldSet()
	for f := range visible {
		if !readOnly.Has(f) {
			editable[f] = struct{}{}
		}
	}
	return Policy{Visible: visible, Editable: editable}
}

// CanViewUser reports whether the actor may see the account at all.
// Non-superusers only ever see their own account.
func CanViewUser(actor model.Actor, user *model.User) bool {
	return actor.IsSuperuser || actor.UserID == user.ID
}
