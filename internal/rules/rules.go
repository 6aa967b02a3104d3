// Package rules decides who may read and write the data collections.
//
// Each collection has a read and a write rule. Collections without an entry
// are open to every signed-in user. A rule is one of the expressions below:
//
//	true                        always allowed
//	false                       never allowed
//	auth != null                any signed-in user
//	auth == null                anonymous callers only
//	auth.uid == 'admin'         the admin user only
//	resource.owner == auth.uid  the user who last wrote the item
//	resource.id == auth.uid     items whose "collection:key" id is the login
//
// Resource rules can only be answered for a concrete item. At collection level
// they allow the request and every item is checked on its own.
package rules

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
)

// Rule is an access expression.
type Rule string

const (
	Allow         Rule = "true"
	Deny          Rule = "false"
	Authenticated Rule = "auth != null"
	Anonymous     Rule = "auth == null"
	AdminOnly     Rule = "auth.uid == 'admin'"
	Owner         Rule = "resource.owner == auth.uid"
	ResourceID    Rule = "resource.id == auth.uid"
)

// AdminUser is the login matched by AdminOnly.
const AdminUser = "admin"

// Access holds the rules of one collection.
type Access struct {
	Read  Rule `toml:"read"`
	Write Rule `toml:"write"`
}

// Resource identifies the stored item a rule is evaluated against.
type Resource struct {
	Collection string
	Key        string
	Owner      string
}

// ID is the "collection:key" identifier matched by ResourceID.
func (r Resource) ID() string {
	return r.Collection + ":" + r.Key
}

// Set is an immutable collection-to-rules table.
type Set struct {
	collections map[string]Access
}

// Default returns the built-in rules: sensors are world readable and writable
// by any signed-in user, admin belongs to the admin user.
func Default() *Set {
	return &Set{collections: map[string]Access{
		"sensors": {Read: Allow, Write: Authenticated},
		"admin":   {Read: AdminOnly, Write: AdminOnly},
	}}
}

// New builds a Set on top of the defaults. Entries in overrides replace the
// default entry of the same collection.
func New(overrides map[string]Access) (*Set, error) {
	s := Default()
	for name, a := range overrides {
		if name == "" {
			return nil, errors.New("rules: empty collection name")
		}
		for _, r := range []Rule{a.Read, a.Write} {
			if !r.valid() {
				return nil, fmt.Errorf("rules: collection %q: unknown rule %q", name, r)
			}
		}
		s.collections[name] = a
	}
	return s, nil
}

type file struct {
	Collections map[string]Access `toml:"collections"`
}

// Load reads overrides from a TOML file:
//
//	[collections.metrics]
//	read = "auth != null"
//	write = "resource.owner == auth.uid"
//
// An empty path or a missing file gives the defaults.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}
	var f file
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("rules: %w", err)
	}
	return New(f.Collections)
}

// CanRead reports whether user may read from collection at all.
func (s *Set) CanRead(collection, user string) bool {
	return s.access(collection).Read.allows(user, nil)
}

// CanWrite reports whether user may write to collection at all.
func (s *Set) CanWrite(collection, user string) bool {
	return s.access(collection).Write.allows(user, nil)
}

// CanReadItem reports whether user may read the stored item res.
func (s *Set) CanReadItem(user string, res Resource) bool {
	return s.access(res.Collection).Read.allows(user, &res)
}

// CanWriteItem reports whether user may overwrite or delete the stored item res.
func (s *Set) CanWriteItem(user string, res Resource) bool {
	return s.access(res.Collection).Write.allows(user, &res)
}

func (s *Set) access(collection string) Access {
	if a, ok := s.collections[collection]; ok {
		return a
	}
	return Access{Read: Authenticated, Write: Authenticated}
}

func (r Rule) valid() bool {
	switch r {
	case Allow, Deny, Authenticated, Anonymous, AdminOnly, Owner, ResourceID:
		return true
	}
	return false
}

func (r Rule) allows(user string, res *Resource) bool {
	switch r {
	case Allow:
		return true
	case Authenticated:
		return user != ""
	case Anonymous:
		return user == ""
	case AdminOnly:
		return user == AdminUser
	case Owner:
		return res == nil || (user != "" && res.Owner == user)
	case ResourceID:
		return res == nil || (user != "" && res.ID() == user)
	default:
		return false
	}
}
