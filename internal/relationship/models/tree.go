package models

import id "lineage/pkg/domain"

// PersonSummary is the slice of a person a tree or path needs to render.
type PersonSummary struct {
	ID        id.PersonID `json:"id"`
	Name      string      `json:"name"`
	BirthYear *int        `json:"birth_year,omitempty"`
	DeathYear *int        `json:"death_year,omitempty"`
}

// TreeNode is one person in an ancestor or descendant tree. Relatives holds
// parents for ancestor trees and children for descendant trees; it is empty
// at the generation limit.
type TreeNode struct {
	Person     PersonSummary `json:"person"`
	Qualifier  Qualifier     `json:"relationship_qualifier,omitempty"`
	Generation int           `json:"generation"`
	Relatives  []*TreeNode   `json:"relatives,omitempty"`
}

// PathStep is one hop of a relationship path, read from From's side.
type PathStep struct {
	Relationship *Relationship `json:"relationship"`
	From         id.PersonID   `json:"from"`
	To           id.PersonID   `json:"to"`
	// Label describes From's relation to To, e.g. "parent of".
	Label string `json:"label"`
}
