package access

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
)

// Role is the closed set of user roles. The zero value is not a valid role.
type Role uint8

const (
	RoleAgent Role = iota + 1
	RoleAssistant
	RoleResponsable
	RoleAdmin
)

var ErrUnknownRole = errors.New("unknown role")

func AllRoles() []Role {
	return []Role{RoleAgent, RoleAssistant, RoleResponsable, RoleAdmin}
}

func ParseRole(value string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "agent":
		return RoleAgent, nil
	case "assistant":
		return RoleAssistant, nil
	case "responsable":
		return RoleResponsable, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRole, value)
	}
}

func (r Role) String() string {
	switch r {
	case RoleAgent:
		return "agent"
	case RoleAssistant:
		return "assistant"
	case RoleResponsable:
		return "responsable"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleAgent, RoleAssistant, RoleResponsable, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, ErrUnknownRole
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value stores the role as its text name.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, ErrUnknownRole
	}
	return r.String(), nil
}

func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	case nil:
		return fmt.Errorf("%w: null", ErrUnknownRole)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrUnknownRole, src)
	}
}
