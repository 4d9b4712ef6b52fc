// Package riotid parses and validates name#tag player identities.
package riotid

import (
	"errors"
	"strings"
)

// Sentinel kinds for invalid identities.
var (
	ErrMissingDelimiter = errors.New("riot id must be in the form name#tag")
	ErrEmptyName        = errors.New("riot id name is empty")
	ErrEmptyTag         = errors.New("riot id tag is empty")
)

// ID is a validated player identity.
type ID struct {
	Name string
	Tag  string
}

// New validates name and tag after trimming surrounding whitespace.
func New(name, tag string) (ID, error) {
	id := ID{Name: strings.TrimSpace(name), Tag: strings.TrimPrefix(strings.TrimSpace(tag), "#")}
	switch {
	case id.Name == "":
		return ID{}, ErrEmptyName
	case id.Tag == "":
		return ID{}, ErrEmptyTag
	}
	return id, nil
}

// Parse splits s on its last '#'. Names may contain '#', tags may not.
func Parse(s string) (ID, error) {
	i := strings.LastIndex(s, "#")
	if i < 0 {
		return ID{}, ErrMissingDelimiter
	}
	return New(s[:i], s[i+1:])
}

// String renders name#tag.
func (id ID) String() string {
	return id.Name + "#" + id.Tag
}

// Equal compares two identities case-insensitively.
func (id ID) Equal(other ID) bool {
	return strings.EqualFold(id.Name, other.Name) && strings.EqualFold(id.Tag, other.Tag)
}
