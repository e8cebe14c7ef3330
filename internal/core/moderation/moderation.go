// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package moderation implements the community moderation and membership state machine.

It governs who may act on a community (moderators with fine-grained capability
flags), the lifecycle of users within a community (approved, muted, banned,
moderator with a pending-invitation sub-state), and the visibility rules that
follow from those states.

# Core Responsibility

  - Permission Evaluation: Decides whether an actor's capability set covers a
    requested action.
  - Membership Registry: Maintains the per-community banned, muted, and
    approved lists with uniqueness and idempotency guarantees.
  - Moderator Lifecycle: Invitation, acceptance, removal, and self-departure
    of moderators, including the seniority rule for who may edit whom.

A user's "communities I moderate" view is derived from the roster (active
entries only), so the two sides of the relationship can never drift apart.
*/
package moderation

import "time"

// # Capabilities

// Capability identifies a single moderator permission dimension.
type Capability string

const (
	// CapabilityManageUsers gates ban, mute, approve, and roster changes.
	CapabilityManageUsers Capability = "manage_users"

	// CapabilityManageSettings gates community profile and settings edits.
	CapabilityManageSettings Capability = "manage_settings"

	// CapabilityManagePostsAndComments gates rules, removal reasons, and
	// content moderation actions.
	CapabilityManagePostsAndComments Capability = "manage_posts_and_comments"
)

// CapabilitySet is the per-moderator grant of permission flags.
//
// Everything is a superset override: when true, the individual flags are
// irrelevant for authorization decisions.
type CapabilitySet struct {
	Everything             bool `json:"everything"`
	ManageUsers            bool `json:"manage_users"`
	ManageSettings         bool `json:"manage_settings"`
	ManagePostsAndComments bool `json:"manage_posts_and_comments"`
}

// AllCapabilities returns the founder grant: every flag set.
func AllCapabilities() CapabilitySet {
	return CapabilitySet{
		Everything:             true,
		ManageUsers:            true,
		ManageSettings:         true,
		ManagePostsAndComments: true,
	}
}

// Allows reports whether the set covers the requested capability.
func (s CapabilitySet) Allows(capability Capability) bool {
	if s.Everything {
		return true
	}

	switch capability {
	case CapabilityManageUsers:
		return s.ManageUsers
	case CapabilityManageSettings:
		return s.ManageSettings
	case CapabilityManagePostsAndComments:
		return s.ManagePostsAndComments
	default:
		return false
	}
}

// # Roster Entities

// Moderator represents one entry in a community's moderator roster.
//
// A Pending entry is an outstanding invitation: it occupies the username slot
// (no second invitation can be sent) but grants no authority and is excluded
// from public listings and from the holder's moderated-communities view.
type Moderator struct {
	CommunityID string        `json:"community_id"`
	UserID      string        `json:"user_id"`
	Username    string        `json:"username"`             // Denormalized for listings
	AvatarURL   string        `json:"avatar_url,omitempty"` // Denormalized for listings
	Grants      CapabilitySet `json:"has_access"`
	GrantedAt   time.Time     `json:"moderator_since"`
	Pending     bool          `json:"pending"`
	Favorite    bool          `json:"favorite"`
}

// # Membership Records

// BanReason categorizes why a user was banned.
type BanReason string

const (
	BanReasonNone     BanReason = "none"
	BanReasonRule     BanReason = "rule"
	BanReasonSpam     BanReason = "spam"
	BanReasonPersonal BanReason = "personal"
	BanReasonThreat   BanReason = "threat"
	BanReasonOthers   BanReason = "others"
)

// Valid reports whether the reason is one of the known enum values.
func (r BanReason) Valid() bool {
	switch r {
	case BanReasonNone, BanReasonRule, BanReasonSpam, BanReasonPersonal, BanReasonThreat, BanReasonOthers:
		return true
	default:
		return false
	}
}

// BannedUser is one entry in a community's ban list.
type BannedUser struct {
	CommunityID string     `json:"community_id"`
	UserID      string     `json:"user_id"`
	Username    string     `json:"username"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	BannedAt    time.Time  `json:"banned_date"`
	Reason      BanReason  `json:"reason_for_ban"`
	ModNote     string     `json:"mod_note,omitempty"`
	Permanent   bool       `json:"permanent"`
	BannedUntil *time.Time `json:"banned_until,omitempty"` // nil when Permanent
	BanMessage  string     `json:"note_for_ban_message,omitempty"`
}

// MutedUser is one entry in a community's mute list.
//
// Presence means the user cannot message the community's moderators. With the
// repeat-mute policy enabled the list doubles as a mute history, so a user
// may hold several entries.
type MutedUser struct {
	ID          string    `json:"id"`
	CommunityID string    `json:"community_id"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	MutedByID   string    `json:"muted_by_id"`
	MutedBy     string    `json:"muted_by"`
	MutedAt     time.Time `json:"mute_date"`
	Reason      string    `json:"mute_reason,omitempty"`
}

// ApprovedUser is one entry in a community's approved list.
//
// Approval only matters for restricted-visibility communities, where it is
// the explicit grant to join and post.
type ApprovedUser struct {
	CommunityID string    `json:"community_id"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	ApprovedAt  time.Time `json:"approved_at"`
}

// # Operation Inputs

// BanInput carries the caller-supplied fields of a ban.
type BanInput struct {
	Reason      BanReason  `json:"reason_for_ban"`
	ModNote     string     `json:"mod_note"`
	Permanent   bool       `json:"permanent"`
	BannedUntil *time.Time `json:"banned_until"`
	BanMessage  string     `json:"note_for_ban_message"`
}

// # Collaborator Views

// TargetUser is the minimal projection of a user account that moderation
// operations need: identity plus the avatar used to enrich list entries.
type TargetUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// CommunityRef is the minimal projection of a community used for existence
// checks and notification wording.
type CommunityRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// # Field Identifiers

const (
	FieldUsername   = "username"
	FieldAction     = "action"
	FieldReason     = "reason"
	FieldBanReason  = "reason_for_ban"
	FieldFavorite   = "favorite"
	FieldCapability = "capability"
)
