package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRelation(t *testing.T) {
	tests := []struct {
		name        string
		user        User
		kind        RelationKind
		other       string
		wantChanged bool
		wantErr     error
		wantFriends []string
		wantEnemies []string
	}{
		{
			name:        "adds new friend",
			user:        User{ID: "a1"},
			kind:        RelationFriend,
			other:       "b1",
			wantChanged: true,
			wantFriends: []string{"b1"},
			wantEnemies: nil,
		},
		{
			name:        "enemy becomes friend",
			user:        User{ID: "a1", Friends: []string{}, Enemies: []string{"b1"}},
			kind:        RelationFriend,
			other:       "b1",
			wantChanged: true,
			wantFriends: []string{"b1"},
			wantEnemies: []string{},
		},
		{
			name:        "friend becomes enemy keeps other enemies",
			user:        User{ID: "a1", Friends: []string{"b1", "c1"}, Enemies: []string{"d1"}},
			kind:        RelationEnemy,
			other:       "b1",
			wantChanged: true,
			wantFriends: []string{"c1"},
			wantEnemies: []string{"d1", "b1"},
		},
		{
			name:        "already a friend is a no-op",
			user:        User{ID: "a1", Friends: []string{"b1"}},
			kind:        RelationFriend,
			other:       "b1",
			wantChanged: false,
			wantFriends: []string{"b1"},
		},
		{
			name:        "self relation rejected",
			user:        User{ID: "a1"},
			kind:        RelationEnemy,
			other:       "a1",
			wantErr:     ErrSelfRelation,
			wantFriends: nil,
			wantEnemies: nil,
		},
		{
			name:    "unknown kind rejected",
			user:    User{ID: "a1"},
			kind:    RelationKind("rival"),
			other:   "b1",
			wantErr: ErrUnknownRelationKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := tt.user
			changed, err := u.AddRelation(tt.kind, tt.other)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, changed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantFriends, u.Friends)
			assert.Equal(t, tt.wantEnemies, u.Enemies)
		})
	}
}

func TestAddRelationIsIdempotent(t *testing.T) {
	once := &User{ID: "u1"}
	_, err := once.AddRelation(RelationFriend, "t1")
	require.NoError(t, err)

	twice := &User{ID: "u1"}
	_, err = twice.AddRelation(RelationFriend, "t1")
	require.NoError(t, err)
	changed, err := twice.AddRelation(RelationFriend, "t1")
	require.NoError(t, err)

	assert.False(t, changed)
	assert.Equal(t, once.Friends, twice.Friends)
	assert.Equal(t, once.Enemies, twice.Enemies)
}

func TestRemoveRelation(t *testing.T) {
	u := &User{ID: "a1", Friends: []string{"b1", "c1"}, Enemies: []string{"d1"}}

	changed, err := u.RemoveRelation(RelationFriend, "b1")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"c1"}, u.Friends)

	changed, err = u.RemoveRelation(RelationEnemy, "b1")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []string{"d1"}, u.Enemies)
}

func TestRelationSetsStayDisjoint(t *testing.T) {
	type op struct {
		add   bool
		kind  RelationKind
		other string
	}
	ops := []op{
		{true, RelationFriend, "b"}, {true, RelationEnemy, "b"}, {true, RelationEnemy, "c"},
		{true, RelationFriend, "c"}, {false, RelationFriend, "c"}, {true, RelationFriend, "a"},
		{true, RelationEnemy, "d"}, {true, RelationFriend, "d"}, {true, RelationEnemy, "b"},
		{false, RelationEnemy, "x"}, {true, RelationFriend, "b"},
	}

	u := &User{ID: "a"}
	for _, o := range ops {
		if o.add {
			_, _ = u.AddRelation(o.kind, o.other)
		} else {
			_, _ = u.RemoveRelation(o.kind, o.other)
		}

		assert.NotContains(t, u.Friends, u.ID)
		assert.NotContains(t, u.Enemies, u.ID)
		for _, f := range u.Friends {
			assert.NotContains(t, u.Enemies, f)
		}
	}
	assert.Equal(t, []string{"d", "b"}, u.Friends)
	assert.Empty(t, u.Enemies)
}

func TestAddRelationDoesNotAliasInput(t *testing.T) {
	friends := make([]string, 1, 4)
	friends[0] = "b1"
	u := &User{ID: "a1", Friends: friends}
	snapshot := u.Clone()

	_, err := u.AddRelation(RelationFriend, "c1")
	require.NoError(t, err)

	assert.Equal(t, []string{"b1"}, snapshot.Friends)
	assert.Equal(t, []string{"b1", "c1"}, u.Friends)
}
