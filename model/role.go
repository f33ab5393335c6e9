package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Role is the coarse identity class assigned by the backend.
type Role int

const (
	RoleNone     Role = 0
	RoleAdmin    Role = 1
	RoleManager  Role = 2
	RoleStaff    Role = 3
	RoleCustomer Role = 4
)

var roleNames = map[Role]string{
	RoleAdmin:    "admin",
	RoleManager:  "manager",
	RoleStaff:    "staff",
	RoleCustomer: "customer",
}

// Roles lists every known role in id order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleStaff, RoleCustomer}
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseRole accepts a role id ("2") or a role name ("manager").
func ParseRole(value string) (Role, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if n, err := strconv.Atoi(value); err == nil {
		return Role(n), nil
	}
	for role, name := range roleNames {
		if name == value {
			return role, nil
		}
	}
	return RoleNone, fmt.Errorf("unknown role %q", value)
}

// UnmarshalJSON normalizes the role field to an integer; the API sends it
// either as a number or as a numeric string.
func (r *Role) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = RoleNone
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*r = RoleNone
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("decode role %q: %w", s, err)
		}
		*r = Role(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode role %s: %w", data, err)
	}
	*r = Role(n)
	return nil
}
