package auth

import "encoding/json"

// Role is a capability tag, not a rank. A user's Access credential carries a
// set of Roles; authorization is membership in that set, never a hierarchy
// comparison (contrast the teacher's weighted rbac.go).
type Role string

const (
	RoleEditMemo      Role = "edit_memo"
	RoleViewMemo      Role = "view_memo"
	RoleSummarizeMemo Role = "summarize_memo"
	RoleEditTag       Role = "edit_tag"
	RoleEditAccount   Role = "edit_account"
	RoleDeleteAccount Role = "delete_account"
	RoleResetPassword Role = "reset_password"
)

// DefaultRoles is the capability set attached to every Access credential the
// service issues (login, registration completion, and refresh).
// ResetPassword and DeleteAccount are deliberately withheld from it; no code
// path in this module issues an Access credential carrying either of them.
var DefaultRoles = RoleSet{
	RoleEditMemo:      {},
	RoleViewMemo:      {},
	RoleSummarizeMemo: {},
	RoleEditTag:       {},
	RoleEditAccount:   {},
}

// RoleSet is a set of Roles, represented as a map for O(1) membership tests
// and straightforward JSON marshaling as a string array via MarshalJSON.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from a slice of roles.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Has reports whether the set contains r.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Slice returns the set's members as a slice, in no particular order.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	return out
}

// MarshalJSON encodes the set as a JSON array of role strings so the JWT
// claim serializes as `"roles": ["edit_memo", ...]` rather than an object.
func (s RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON decodes a JSON array of role strings into the set.
func (s *RoleSet) UnmarshalJSON(data []byte) error {
	var roles []Role
	if err := json.Unmarshal(data, &roles); err != nil {
		return err
	}
	*s = NewRoleSet(roles...)
	return nil
}
