package entity

import (
	"errors"
	"slices"
)

// RelationKind names one of the two relation sets on a user.
type RelationKind string

const (
	RelationFriend RelationKind = "friend"
	RelationEnemy  RelationKind = "enemy"
)

var (
	ErrSelfRelation        = errors.New("a user cannot relate to itself")
	ErrUnknownRelationKind = errors.New("unknown relation kind")
)

func (k RelationKind) Valid() bool {
	return k == RelationFriend || k == RelationEnemy
}

// Opposite returns the set that must not contain a target once it joins k.
func (k RelationKind) Opposite() RelationKind {
	if k == RelationFriend {
		return RelationEnemy
	}
	return RelationFriend
}

// Relations returns the set of IDs for kind.
func (u *User) Relations(kind RelationKind) []string {
	if kind == RelationEnemy {
		return u.Enemies
	}
	return u.Friends
}

func (u *User) setRelations(kind RelationKind, ids []string) {
	if kind == RelationEnemy {
		u.Enemies = ids
		return
	}
	u.Friends = ids
}

// HasRelation reports whether otherID is in u's kind set.
func (u *User) HasRelation(kind RelationKind, otherID string) bool {
	return slices.Contains(u.Relations(kind), otherID)
}

// AddRelation puts otherID into the kind set, pulling it out of the opposite
// set first. It reports whether u changed.
func (u *User) AddRelation(kind RelationKind, otherID string) (bool, error) {
	if !kind.Valid() {
		return false, ErrUnknownRelationKind
	}
	if otherID == u.ID {
		return false, ErrSelfRelation
	}
	if u.HasRelation(kind, otherID) {
		return false, nil
	}
	if opp := kind.Opposite(); u.HasRelation(opp, otherID) {
		u.setRelations(opp, without(u.Relations(opp), otherID))
	}
	u.setRelations(kind, append(slices.Clone(u.Relations(kind)), otherID))
	return true, nil
}

// RemoveRelation drops otherID from the kind set. It reports whether u changed.
func (u *User) RemoveRelation(kind RelationKind, otherID string) (bool, error) {
	if !kind.Valid() {
		return false, ErrUnknownRelationKind
	}
	if !u.HasRelation(kind, otherID) {
		return false, nil
	}
	u.setRelations(kind, without(u.Relations(kind), otherID))
	return true, nil
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
