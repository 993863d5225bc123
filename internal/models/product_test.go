package models

import "testing"

func TestProductIsLowStock(t *testing.T) {
	cases := []struct {
		stock     float64
		threshold float64
		want      bool
	}{
		{5, 5, true},
		{6, 5, false},
		{0, 5, true},
		{4.9, 5, true},
	}
	for _, c := range cases {
		p := Product{CurrentStock: c.stock, AlertThreshold: c.threshold}
		if got := p.IsLowStock(); got != c.want {
			t.Errorf("IsLowStock(stock=%v, threshold=%v) = %v, want %v",
				c.stock, c.threshold, got, c.want)
		}
	}
}

func TestUserFullName(t *testing.T) {
	cases := []struct {
		first, last, username, want string
	}{
		{"Marie", "Dupont", "marie", "Marie Dupont"},
		{"", "", "marie", "marie"},
		{"Marie", "", "marie", "Marie"},
		{"", "Dupont", "marie", "Dupont"},
	}
	for _, c := range cases {
		u := User{FirstName: c.first, LastName: c.last, Username: c.username}
		if got := u.FullName(); got != c.want {
			t.Errorf("FullName(%q, %q) = %q, want %q", c.first, c.last, got, c.want)
		}
	}
}

func TestUserRoleNameDefaultsToStaff(t *testing.T) {
	u := User{}
	if got := u.RoleName(); got != RoleStaff {
		t.Errorf("RoleName() = %q, want %q", got, RoleStaff)
	}

	u.Role = &UserRole{Name: RoleAdmin}
	if got := u.RoleName(); got != RoleAdmin {
		t.Errorf("RoleName() = %q, want %q", got, RoleAdmin)
	}
}

func TestCustomerFullName(t *testing.T) {
	c := Customer{FirstName: "Jean", LastName: "Martin"}
	if got := c.FullName(); got != "Jean Martin" {
		t.Errorf("FullName() = %q, want %q", got, "Jean Martin")
	}
}
