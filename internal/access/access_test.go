package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"logiflow/internal/access"
	"logiflow/internal/model"
)

type row struct {
	owner string
	group uint
}

func (r row) OwnerID() string    { return r.owner }
func (r row) OwnerGroupID() uint { return r.group }

func uintPtr(v uint) *uint { return &v }

func TestForRequester_AdminIsUnrestricted(t *testing.T) {
	s := access.ForRequester(access.Requester{UserID: "a", Role: model.RoleAdmin}, nil)

	assert.True(t, s.Unrestricted())
	assert.False(t, s.IsEmpty())
	assert.True(t, s.Allows(42))
	assert.Nil(t, s.GroupIDs())
}

func TestForRequester_EmployeeGetsMemberships(t *testing.T) {
	s := access.ForRequester(access.Requester{UserID: "e", Role: model.RoleEmployee}, []uint{3, 2, 3})

	assert.False(t, s.Unrestricted())
	assert.Equal(t, []uint{2, 3}, s.GroupIDs())
	assert.True(t, s.Allows(2))
	assert.False(t, s.Allows(1))
}

func TestForRequester_NoMembershipsIsEmpty(t *testing.T) {
	s := access.ForRequester(access.Requester{UserID: "m", Role: model.RoleManager}, nil)

	assert.True(t, s.IsEmpty())
	assert.False(t, s.Allows(1))
	assert.Empty(t, s.GroupIDs())
}

func TestNarrow(t *testing.T) {
	t.Run("admin narrows to store", func(t *testing.T) {
		s := access.All().Narrow(uintPtr(5))
		assert.Equal(t, []uint{5}, s.GroupIDs())
	})

	t.Run("nil keeps scope", func(t *testing.T) {
		s := access.Groups(1, 2).Narrow(nil)
		assert.Equal(t, []uint{1, 2}, s.GroupIDs())
	})

	t.Run("foreign store yields empty scope", func(t *testing.T) {
		s := access.Groups(2).Narrow(uintPtr(1))
		assert.True(t, s.IsEmpty())
	})

	t.Run("member store", func(t *testing.T) {
		s := access.Groups(1, 2).Narrow(uintPtr(2))
		assert.Equal(t, []uint{2}, s.GroupIDs())
	})
}

func TestNewRequester(t *testing.T) {
	emp := access.NewRequester("e", model.RoleEmployee, []string{"orders.read"}, []uint{2})
	assert.Equal(t, []uint{2}, emp.Scope.GroupIDs())

	admin := access.NewRequester("a", model.RoleAdmin, nil, []uint{2})
	assert.True(t, admin.Scope.Unrestricted())
}

func TestRequesterHas(t *testing.T) {
	admin := access.Requester{Role: model.RoleAdmin}
	emp := access.Requester{Role: model.RoleEmployee, Permissions: []string{"orders.read"}}

	assert.True(t, admin.Has("roles.manage"))
	assert.True(t, emp.Has("orders.read"))
	assert.False(t, emp.Has("orders.delete"))
}

func TestCanModify(t *testing.T) {
	admin := access.NewRequester("admin", model.RoleAdmin, nil, nil)
	manager := access.NewRequester("mgr", model.RoleManager, nil, []uint{2})
	employee := access.NewRequester("emp", model.RoleEmployee, nil, []uint{2})

	tests := []struct {
		name      string
		requester access.Requester
		row       row
		want      bool
	}{
		{"admin on any row", admin, row{owner: "x", group: 9}, true},
		{"manager in group", manager, row{owner: "x", group: 2}, true},
		{"manager outside group", manager, row{owner: "mgr", group: 1}, false},
		{"employee own row", employee, row{owner: "emp", group: 2}, true},
		{"employee foreign row", employee, row{owner: "x", group: 2}, false},
		{"employee own row outside group", employee, row{owner: "emp", group: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, access.CanModify(tt.requester, tt.row))
		})
	}
}
