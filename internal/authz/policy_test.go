package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthorizeAdminWildcard(t *testing.T) {
	require.NoError(t, Authorize(RoleAdmin, "purchasing.proposal.approve"))
	require.NoError(t, Authorize(RoleAdmin, "users.manage"))
	// Admin passes even for operations nobody declared.
	require.NoError(t, Authorize(RoleAdmin, "does.not.exist"))
}

func TestAuthorizeAllowedRoles(t *testing.T) {
	require.NoError(t, Authorize(RoleManager, "purchasing.proposal.approve"))
	require.NoError(t, Authorize(RoleBuyer, "purchasing.proposal.add"))
	require.NoError(t, Authorize(RoleStandard, "fleet.view"))
}

func TestAuthorizeDenied(t *testing.T) {
	require.ErrorIs(t, Authorize(RoleBuyer, "purchasing.proposal.approve"), ErrForbidden)
	require.ErrorIs(t, Authorize(RoleStandard, "suppliers.manage"), ErrForbidden)
	require.ErrorIs(t, Authorize(RoleBuyer, "users.manage"), ErrForbidden)
}

func TestAuthorizeUnknownOperation(t *testing.T) {
	require.ErrorIs(t, Authorize(RoleManager, "nope"), ErrUnknownOperation)
}

func TestValidRole(t *testing.T) {
	require.True(t, ValidRole("admin"))
	require.True(t, ValidRole(" Manager "))
	require.False(t, ValidRole("root"))
	require.False(t, ValidRole(""))
}
