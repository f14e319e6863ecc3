package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDefaultRolesAndPermissions(t *testing.T) {
	env := newTestEnv(t)
	roles := NewRoleService(env.db)
	ctx := context.Background()

	require.NoError(t, roles.SeedDefaultRolesAndPermissions(ctx))
	// Idempotent
	require.NoError(t, roles.SeedDefaultRolesAndPermissions(ctx))

	all, err := roles.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	for _, r := range all {
		assert.True(t, r.IsSystem, "seeded role %s should be a system role", r.Name)
	}

	adminPerms, err := roles.GetPermissionsByRoleName(ctx, "admin")
	require.NoError(t, err)
	assert.Contains(t, adminPerms, "loan_applications.decide")
	assert.Contains(t, adminPerms, "payments.reverse")
	assert.Contains(t, adminPerms, "roles.manage")

	officerPerms, err := roles.GetPermissionsByRoleName(ctx, "loan_officer")
	require.NoError(t, err)
	assert.Contains(t, officerPerms, "loan_applications.write")
	assert.Contains(t, officerPerms, "payments.write")
	assert.NotContains(t, officerPerms, "loan_applications.decide")
	assert.NotContains(t, officerPerms, "payments.verify")

	managerPerms, err := roles.GetPermissionsByRoleName(ctx, "manager")
	require.NoError(t, err)
	assert.Contains(t, managerPerms, "loan_applications.decide")
	assert.Contains(t, managerPerms, "payments.verify")
	assert.NotContains(t, managerPerms, "roles.manage")
}

func TestSystemRolesCannotBeDeleted(t *testing.T) {
	env := newTestEnv(t)
	roles := NewRoleService(env.db)
	ctx := context.Background()

	require.NoError(t, roles.SeedDefaultRolesAndPermissions(ctx))

	all, err := roles.ListRoles(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, all)

	err = roles.DeleteRole(ctx, all[0].ID)
	require.Error(t, err)
}

func TestCustomRoleLifecycle(t *testing.T) {
	env := newTestEnv(t)
	roles := NewRoleService(env.db)
	ctx := context.Background()

	require.NoError(t, roles.SeedDefaultRolesAndPermissions(ctx))

	perms, err := roles.ListPermissions(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, perms)

	created, err := roles.CreateRole(ctx, CreateRoleRequest{
		Name:        "auditor",
		Description: "Read-only audit access",
		Permissions: []string{perms[0].ID},
	})
	require.NoError(t, err)
	assert.False(t, created.IsSystem)
	assert.Len(t, created.Permissions, 1)

	updated, err := roles.UpdateRolePermissions(ctx, created.ID, UpdateRolePermissionsRequest{
		PermissionIDs: []string{perms[0].ID, perms[1].ID},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Permissions, 2)

	require.NoError(t, roles.DeleteRole(ctx, created.ID))
	_, err = roles.GetRole(ctx, created.ID)
	require.Error(t, err)
}
