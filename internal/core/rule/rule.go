// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package rule manages per-community rules and removal reasons.

Rules are the numbered code of conduct shown to members; removal reasons are
the canned explanations moderators attach when taking content down. Both
catalogs are owned by moderators holding the manage_posts_and_comments
capability, while reads are public.

# Core Responsibility

  - Ordering: Rules carry a dense 1-based position assigned at creation.
  - Uniqueness: Titles are unique per community in both catalogs.
*/
package rule

import "time"

// # Core Entities

// Rule is one numbered entry in a community's code of conduct.
type Rule struct {
	ID           string    `json:"id"` // UUIDv7
	CommunityID  string    `json:"community_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	ReportReason string    `json:"report_reason"` // Defaults to the title
	Order        int       `json:"rule_order"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RemovalReason is a canned explanation for content takedowns.
type RemovalReason struct {
	ID          string    `json:"id"` // UUIDv7
	CommunityID string    `json:"community_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message,omitempty"` // Shown to the affected user
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// # Operation Inputs

// RuleInput carries the caller-supplied rule fields. Nil means unchanged on
// edit.
type RuleInput struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	ReportReason *string `json:"report_reason"`
}

// ReasonInput carries the caller-supplied removal-reason fields.
type ReasonInput struct {
	Title   *string `json:"title"`
	Message *string `json:"message"`
}

// # Field Identifiers

const (
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldReportReason = "report_reason"
	FieldMessage      = "message"
)
