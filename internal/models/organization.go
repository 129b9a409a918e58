package models

import (
	"slices"
	"strings"
)

// RelationshipStatus is the state of a bilateral data sharing permission.
type RelationshipStatus string

const (
	RelationshipPending  RelationshipStatus = "PENDING"
	RelationshipActive   RelationshipStatus = "ACTIVE"
	RelationshipInactive RelationshipStatus = "INACTIVE"
)

// Valid reports whether s is one of the known relationship states.
func (s RelationshipStatus) Valid() bool {
	switch s {
	case RelationshipPending, RelationshipActive, RelationshipInactive:
		return true
	}
	return false
}

// DocTypeOrganization tags organization records in public state.
const DocTypeOrganization = "org"

// Organization is an enrolled ledger identity and its relationship table.
// It is stored in public state keyed by ID.
type Organization struct {
	DocType string                   `json:"docType"`
	ID      string                   `json:"id"`
	ACL     map[string]*Relationship `json:"acl"`
}

// Relationship is a bilateral permission between two organizations. The same
// value is recorded under both organizations' ACL.
type Relationship struct {
	ID        string               `json:"id"`
	Entities  []string             `json:"entities"`
	Status    RelationshipStatus   `json:"status"`
	ChangedBy string               `json:"changedBy"`
	Comment   string               `json:"comment"`
	Timestamp string               `json:"timestamp"`
	History   []RelationshipChange `json:"history"`
}

// RelationshipChange is a snapshot of a relationship prior to a transition.
type RelationshipChange struct {
	Comment   string             `json:"comment"`
	Status    RelationshipStatus `json:"status"`
	ChangedBy string             `json:"changedBy"`
	Timestamp string             `json:"timestamp"`
}

// RelationshipID returns the canonical identifier for the unordered pair a, b.
func RelationshipID(a, b string) string {
	pair := []string{a, b}
	slices.Sort(pair)
	return strings.Join(pair, ",")
}

// Clone returns a deep copy of the relationship.
func (r *Relationship) Clone() *Relationship {
	if r == nil {
		return nil
	}
	c := *r
	c.Entities = slices.Clone(r.Entities)
	c.History = slices.Clone(r.History)
	return &c
}
