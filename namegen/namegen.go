package namegen

import (
	vendor "github.com/anandvarma/namegen"
)

var gen = vendor.New()

// ID is a short human-readable random identifier, used to disambiguate
// generated physical resource names and engine instances.
type ID string

func Get() ID {
	return ID(gen.Get())
}

func (id ID) String() string {
	return string(id)
}
