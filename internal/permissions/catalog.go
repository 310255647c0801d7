package permissions

import (
	"fmt"
	"sort"
	"strings"
)

// Permission is a capability key gating a single club action.
type Permission string

const (
	ClubView   Permission = "CLUB_VIEW"
	ClubManage Permission = "CLUB_MANAGE"
	ClubDelete Permission = "CLUB_DELETE"

	JoinCancel    Permission = "JOIN_CANCEL"
	MemberView    Permission = "MEMBER_VIEW"
	MemberApprove Permission = "MEMBER_APPROVE"
	MemberManage  Permission = "MEMBER_MANAGE"
	MemberKick    Permission = "MEMBER_KICK"

	MatchView   Permission = "MATCH_VIEW"
	MatchCreate Permission = "MATCH_CREATE"
	MatchManage Permission = "MATCH_MANAGE"
	MatchRecord Permission = "MATCH_RECORD"

	AttendanceVote   Permission = "ATTENDANCE_VOTE"
	AttendanceManage Permission = "ATTENDANCE_MANAGE"

	PostView     Permission = "POST_VIEW"
	PostCreate   Permission = "POST_CREATE"
	PostManage   Permission = "POST_MANAGE"
	BoardManager Permission = "BOARD_MANAGER"

	PermissionView   Permission = "PERMISSION_VIEW"
	PermissionManage Permission = "PERMISSION_MANAGE"
)

// Definition describes a catalogued permission.
type Definition struct {
	ID          Permission `json:"id"`
	Module      string     `json:"module"`
	Description string     `json:"description"`
}

var catalog = map[Permission]Definition{}

func init() {
	defs := []Definition{
		{ID: ClubView, Module: "club", Description: "View club profile and schedule"},
		{ID: ClubManage, Module: "club", Description: "Edit club profile and settings"},
		{ID: ClubDelete, Module: "club", Description: "Delete the club"},

		{ID: JoinCancel, Module: "membership", Description: "Withdraw a pending join request"},
		{ID: MemberView, Module: "membership", Description: "View the member roster"},
		{ID: MemberApprove, Module: "membership", Description: "Approve or reject join requests"},
		{ID: MemberManage, Module: "membership", Description: "Change member roles"},
		{ID: MemberKick, Module: "membership", Description: "Remove members from the club"},

		{ID: MatchView, Module: "match", Description: "View matches"},
		{ID: MatchCreate, Module: "match", Description: "Schedule new matches"},
		{ID: MatchManage, Module: "match", Description: "Edit and cancel matches"},
		{ID: MatchRecord, Module: "match", Description: "Record match results and line-ups"},

		{ID: AttendanceVote, Module: "attendance", Description: "Vote on match attendance"},
		{ID: AttendanceManage, Module: "attendance", Description: "Edit attendance for other members"},

		{ID: PostView, Module: "board", Description: "Read board posts"},
		{ID: PostCreate, Module: "board", Description: "Write board posts"},
		{ID: PostManage, Module: "board", Description: "Edit or delete any post"},
		{ID: BoardManager, Module: "board", Description: "Create and configure boards"},

		{ID: PermissionView, Module: "admin", Description: "View member permission overrides"},
		{ID: PermissionManage, Module: "admin", Description: "Grant and revoke member permission overrides"},
	}

	for _, def := range defs {
		if _, exists := catalog[def.ID]; exists {
			panic(fmt.Sprintf("permission: %s catalogued twice", def.ID))
		}
		catalog[def.ID] = def
	}
}

// ParsePermission converts user or storage input into a Permission.
func ParsePermission(value string) (Permission, error) {
	perm := Permission(strings.ToUpper(strings.TrimSpace(value)))
	if !perm.Valid() {
		return "", fmt.Errorf("%w %q", ErrUnknownPermission, value)
	}
	return perm, nil
}

// Valid reports whether p is catalogued.
func (p Permission) Valid() bool {
	_, ok := catalog[p]
	return ok
}

func (p Permission) String() string {
	return string(p)
}

// Get returns the definition for id.
func Get(id Permission) (Definition, bool) {
	def, ok := catalog[id]
	return def, ok
}

// All returns every definition ordered by ID.
func All() []Definition {
	out := make([]Definition, 0, len(catalog))
	for _, def := range catalog {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByModule returns definitions in module ordered by ID.
func ByModule(module string) []Definition {
	module = strings.TrimSpace(module)
	var out []Definition
	for _, def := range All() {
		if def.Module == module {
			out = append(out, def)
		}
	}
	return out
}
