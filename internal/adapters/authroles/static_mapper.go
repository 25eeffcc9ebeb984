package authroles

import (
	domainauth "github.com/target/petalcart/internal/domain/auth"
)

// StaticRoleMapper maps IdP groups by simple string membership rules.
// With ClientGroup empty every authenticated identity is at least a client.
type StaticRoleMapper struct {
	AdminGroup  string
	ClientGroup string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, g := range groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin
		}
	}
	if m.ClientGroup == "" {
		return domainauth.RoleClient
	}
	for _, g := range groups {
		if g == m.ClientGroup {
			return domainauth.RoleClient
		}
	}
	return domainauth.RoleAnonymous
}
