package authz

import (
	"fmt"

	"github.com/sokosnap/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 店铺角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.RoleBuyer,
			Policies: []Policy{
				{Object: "/orders", Action: "GET"},
				{Object: "/orders/:id", Action: "GET"},
			},
		},
		{
			Role:     constants.RoleSeller,
			Inherits: []string{constants.RoleBuyer},
			Policies: []Policy{
				{Object: "/seller/products", Action: "*"},
				{Object: "/seller/products/:id/archive", Action: "POST"},
				{Object: "/orders/:id/events", Action: "POST"},
			},
		},
		{
			Role:     constants.RoleRider,
			Inherits: []string{constants.RoleBuyer},
			Policies: []Policy{
				{Object: "/orders/:id/events", Action: "POST"},
			},
		},
		{
			Role:     constants.RoleSupport,
			Inherits: []string{constants.RoleSeller, constants.RoleRider},
			Policies: []Policy{
				{Object: "/support/permissions", Action: "GET"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return errUnavailable
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}
		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}

// GrantExtraPolicies 追加配置文件中声明的角色授权
func (s *Service) GrantExtraPolicies(grants []Policy) error {
	for _, grant := range grants {
		if err := s.GrantRolePolicy(grant.Subject, grant.Object, grant.Action); err != nil {
			return fmt.Errorf("grant %s %s %s: %w", grant.Subject, grant.Action, grant.Object, err)
		}
	}
	return nil
}
