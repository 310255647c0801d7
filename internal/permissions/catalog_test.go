package permissions

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePermission(t *testing.T) {
	perm, err := ParsePermission(" match_create ")
	require.NoError(t, err)
	require.Equal(t, MatchCreate, perm)

	_, err = ParsePermission("MATCH_DELETE")
	require.ErrorIs(t, err, ErrUnknownPermission)
}

func TestCatalogListsEveryPermissionOnce(t *testing.T) {
	defs := All()
	require.Len(t, defs, 20)

	seen := map[Permission]bool{}
	for i, def := range defs {
		require.False(t, seen[def.ID], "duplicate %s", def.ID)
		seen[def.ID] = true
		require.NotEmpty(t, def.Module)
		require.NotEmpty(t, def.Description)
		if i > 0 {
			require.Less(t, defs[i-1].ID, def.ID)
		}
	}
}

func TestByModule(t *testing.T) {
	admin := ByModule("admin")
	require.Len(t, admin, 2)
	require.Equal(t, PermissionManage, admin[0].ID)
	require.Equal(t, PermissionView, admin[1].ID)

	require.Empty(t, ByModule("billing"))
}

func TestSetJSONRoundTripIsSorted(t *testing.T) {
	set := NewSet(PostView, ClubView, MatchView)

	raw, err := json.Marshal(set)
	require.NoError(t, err)
	require.JSONEq(t, `["CLUB_VIEW","MATCH_VIEW","POST_VIEW"]`, string(raw))

	var decoded Set
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, set, decoded)
}

func TestSetUnmarshalRejectsUnknownPermission(t *testing.T) {
	var decoded Set
	err := json.Unmarshal([]byte(`["CLUB_VIEW","CLUB_FLY"]`), &decoded)
	require.ErrorIs(t, err, ErrUnknownPermission)
}

func TestSetCloneIsIndependent(t *testing.T) {
	set := NewSet(ClubView)
	clone := set.Clone()
	clone[PostView] = struct{}{}

	require.False(t, set.Has(PostView))
	require.Equal(t, 2, clone.Len())
}
