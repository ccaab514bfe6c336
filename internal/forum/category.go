// Package forum holds the closed vocabularies of the forum (post categories
// and reactions) and the screening step every post goes through before it
// becomes visible.
package forum

import (
	"fmt"
	"strings"
)

// Category is the board a post is filed under.
type Category string

const (
	CategoryAcademics   Category = "academics"
	CategoryEvents      Category = "events"
	CategoryRants       Category = "rants"
	CategoryInternships Category = "internships"
	CategoryLostFound   Category = "lost-found"
	CategoryClubs       Category = "clubs"
	CategoryGeneral     Category = "general"
	CategoryBookies     Category = "bookies"
)

var allCategories = []Category{
	CategoryAcademics, CategoryEvents, CategoryRants, CategoryInternships,
	CategoryLostFound, CategoryClubs, CategoryGeneral, CategoryBookies,
}

// AllCategories lists every category in display order.
func AllCategories() []Category {
	return append([]Category(nil), allCategories...)
}

// ParseCategory accepts any letter case.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("forum: unknown category %q", s)
	}
	return c, nil
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, k := range allCategories {
		if c == k {
			return true
		}
	}
	return false
}

// Reaction is an emoji reaction on a post.
type Reaction string

const (
	ReactionLike  Reaction = "like"
	ReactionLove  Reaction = "love"
	ReactionHaha  Reaction = "haha"
	ReactionWow   Reaction = "wow"
	ReactionSad   Reaction = "sad"
	ReactionAngry Reaction = "angry"
)

var allReactions = []Reaction{
	ReactionLike, ReactionLove, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry,
}

// AllReactions lists every reaction in display order.
func AllReactions() []Reaction {
	return append([]Reaction(nil), allReactions...)
}

// ParseReaction accepts any letter case.
func ParseReaction(s string) (Reaction, error) {
	r := Reaction(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("forum: unknown reaction %q", s)
	}
	return r, nil
}

// Valid reports whether r is one of the known reactions.
func (r Reaction) Valid() bool {
	for _, k := range allReactions {
		if r == k {
			return true
		}
	}
	return false
}
