// Package access decides which store groups a requester may see and which rows it may change.
package access

import (
	"slices"

	"logiflow/internal/model"
)

// Requester is the authenticated caller of a request
type Requester struct {
	UserID      string
	Role        string
	Permissions []string
	Scope       Scope
}

// NewRequester builds a requester whose scope follows its role and group memberships
func NewRequester(userID, role string, permissions []string, memberships []uint) Requester {
	r := Requester{UserID: userID, Role: role, Permissions: permissions}
	r.Scope = ForRequester(r, memberships)
	return r
}

func (r Requester) IsAdmin() bool   { return r.Role == model.RoleAdmin }
func (r Requester) IsManager() bool { return r.Role == model.RoleManager }

// Has reports whether the requester holds the permission code. Admins hold every code.
func (r Requester) Has(code string) bool {
	if r.IsAdmin() {
		return true
	}
	return slices.Contains(r.Permissions, code)
}

// Scope is the set of group IDs a requester can read and write.
// An unrestricted scope covers every group; a restricted scope with no IDs covers none.
type Scope struct {
	all    bool
	groups []uint
}

// All returns the unrestricted scope
func All() Scope { return Scope{all: true} }

// Groups returns a scope restricted to ids
func Groups(ids ...uint) Scope {
	g := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(g, id) {
			g = append(g, id)
		}
	}
	slices.Sort(g)
	return Scope{groups: g}
}

// ForRequester builds the scope from the requester role and its group memberships
func ForRequester(r Requester, memberships []uint) Scope {
	if r.IsAdmin() {
		return All()
	}
	return Groups(memberships...)
}

func (s Scope) Unrestricted() bool { return s.all }

func (s Scope) IsEmpty() bool { return !s.all && len(s.groups) == 0 }

// GroupIDs returns the sorted restricted IDs, nil when unrestricted
func (s Scope) GroupIDs() []uint {
	if s.all {
		return nil
	}
	return slices.Clone(s.groups)
}

func (s Scope) Allows(groupID uint) bool {
	if s.all {
		return true
	}
	_, found := slices.BinarySearch(s.groups, groupID)
	return found
}

// Narrow restricts the scope to a single store when storeID is set.
// Narrowing to a group outside a restricted scope yields an empty scope, never an error.
func (s Scope) Narrow(storeID *uint) Scope {
	if storeID == nil {
		return s
	}
	if s.Allows(*storeID) {
		return Groups(*storeID)
	}
	return Groups()
}

// Owned is a row with a creator and a group
type Owned interface {
	OwnerID() string
	OwnerGroupID() uint
}

// CanModify applies the row-level rule: admins change any row, managers any row in their
// groups, other roles only their own rows in their groups.
func CanModify(r Requester, row Owned) bool {
	if r.IsAdmin() {
		return true
	}
	if !r.Scope.Allows(row.OwnerGroupID()) {
		return false
	}
	if r.IsManager() {
		return true
	}
	return row.OwnerID() == r.UserID
}
