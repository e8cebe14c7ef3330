// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package community manages communities and their memberships.

It handles the lifecycle of a community from creation through discovery,
joining, and settings changes.

# Core Responsibility

  - Aggregate: Defines the [Community] entity and its metadata.
  - Membership: Manages [Membership] rows with per-user notification flags.
  - Access: Enforces who may join (bans exclude, restricted requires
    approval) by delegating the state lookups to the moderation package.

The community creator becomes the founding moderator with the full
capability set; that write and the community insert share one transaction.
*/
package community

import "time"

// # Core Entities

// Community represents a named space users join and moderators govern.
//
// Name is slug-normalized, unique, and immutable after creation; every other
// display field is mutable through Update.
type Community struct {
	ID          string     `json:"id"` // UUIDv7
	Name        string     `json:"name"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Restricted  bool       `json:"restricted"`
	CreatedBy   string     `json:"created_by"`
	MemberCount int        `json:"member_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"`
}

// Membership represents a user's join record in a community.
type Membership struct {
	CommunityID    string    `json:"community_id"`
	UserID         string    `json:"user_id"`
	Favorite       bool      `json:"favorite"`
	DisableUpdates bool      `json:"disable_updates"`
	JoinedAt       time.Time `json:"joined_at"`
}

// # Operation Inputs

// UpdateInput carries the mutable community fields. Nil means unchanged.
type UpdateInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Restricted  *bool   `json:"restricted"`
}

// MembershipFlags carries the per-member notification preferences.
type MembershipFlags struct {
	Favorite       *bool `json:"favorite"`
	DisableUpdates *bool `json:"disable_updates"`
}

// # Search & Filtering

// Filter holds parameters for searching and listing communities.
type Filter struct {
	Query string `json:"q"`
	Sort  string `json:"sort"` // members, createdat
}

// # Field Identifiers

const (
	FieldName        = "name"
	FieldTitle       = "title"
	FieldDescription = "description"
)
