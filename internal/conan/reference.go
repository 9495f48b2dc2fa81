// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package conan

import (
	"fmt"
	"path"
	"regexp"
)

// Unset is the placeholder stored in place of an absent user or channel.
const Unset = "_"

var referenceRegexp = regexp.MustCompile(`^([^/@#]+)/([^/@#]+)(?:@([^/@#]+)/([^/@#]+))?$`)

// Reference identifies a dependency as name/version[@user/channel].
type Reference struct {
	Name    string
	Version string
	User    string
	Channel string
}

// ParseReference parses a textual reference. User and channel default
// to Unset when the @user/channel suffix is absent.
func ParseReference(s string) (Reference, error) {
	m := referenceRegexp.FindStringSubmatch(s)
	if m == nil {
		return Reference{}, fmt.Errorf("%w: %q", ErrInvalidReference, s)
	}

	ref := Reference{
		Name:    m[1],
		Version: m[2],
		User:    m[3],
		Channel: m[4],
	}
	if ref.User == "" {
		ref.User = Unset
	}
	if ref.Channel == "" {
		ref.Channel = Unset
	}
	return ref, nil
}

// MustParseReference is like ParseReference but panics on error.
func MustParseReference(s string) Reference {
	ref, err := ParseReference(s)
	if err != nil {
		panic(err)
	}
	return ref
}

// String returns the textual form, omitting the @user/channel suffix
// when both parts are unset.
func (r Reference) String() string {
	if r.User == Unset && r.Channel == Unset {
		return fmt.Sprintf("%s/%s", r.Name, r.Version)
	}
	return fmt.Sprintf("%s/%s@%s/%s", r.Name, r.Version, r.User, r.Channel)
}

// Path returns the name/version/user/channel path used both by the
// local cache layout and by the remote v2 API.
func (r Reference) Path() string {
	return path.Join(r.Name, r.Version, r.User, r.Channel)
}

// FullRef returns the reference pinned to a recipe revision.
func (r Reference) FullRef(revision string) string {
	return r.String() + "#" + revision
}
