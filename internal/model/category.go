package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCategory marks a category outside Work and Travel.
var ErrInvalidCategory = errors.New("invalid category")

// Category partitions tasks into the two lists of the planner.
type Category string

const (
	CategoryWork   Category = "Work"
	CategoryTravel Category = "Travel"
)

// DefaultCategory is active on first run.
const DefaultCategory = CategoryWork

// Categories lists every category in display order.
var Categories = []Category{CategoryWork, CategoryTravel}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == CategoryWork || c == CategoryTravel
}

func (c Category) String() string {
	return string(c)
}

// Prompt is the input placeholder shown while the category is active.
func (c Category) Prompt() string {
	if c == CategoryTravel {
		return "Where do you want to go?"
	}
	return "What do you need to do?"
}

// ParseCategory accepts category names case-insensitively plus the w/t shortcuts.
func ParseCategory(raw string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "work", "w":
		return CategoryWork, nil
	case "travel", "t":
		return CategoryTravel, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, raw)
	}
}
