// Package library defines the boundary between coverd and the host music
// library. The host is the one which knows what artists and albums exist. This
// package contains the identity type with which they are addressed throughout
// the program and the interface through which they are enumerated.
package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UnknownID is the sentinel value for the host library identifier of an artist
// or an album. It means "the host did not supply a stable ID for this item".
// Such items are addressed by their names instead.
const UnknownID int64 = -1

// ItemKind tells whether an Identity addresses an artist or an album.
type ItemKind int

const (
	// KindArtist is the identity kind for artists.
	KindArtist ItemKind = iota

	// KindAlbum is the identity kind for albums.
	KindAlbum
)

// String returns the category name used in logs and in the on-disk directory
// layout of the artwork store.
func (k ItemKind) String() string {
	if k == KindAlbum {
		return "album"
	}
	return "artist"
}

// ErrEmptyIdentity is returned by the identity constructors when all of the
// identifying fields are missing. Such an identity cannot be matched against
// anything and must never enter the program.
var ErrEmptyIdentity = errors.New("identity without any identifying fields")

// Identity addresses one artist or album for the purpose of finding and
// caching its artwork. The host library ID is used for matching when present,
// the names otherwise. See the artcache package for the exact matching rules.
type Identity struct {
	// Kind says whether this is an artist or an album identity.
	Kind ItemKind

	// Name is the display name of the artist or the album.
	Name string

	// ArtistName is the name of the album's artist. Meaningful for album
	// identities only.
	ArtistName string

	// ID is the identifier of the item in the host library or UnknownID.
	ID int64
}

// NewArtist creates an artist identity. id may be UnknownID provided that the
// name is non-empty.
func NewArtist(name string, id int64) (Identity, error) {
	idnt := Identity{
		Kind: KindArtist,
		Name: strings.TrimSpace(name),
		ID:   id,
	}

	if idnt.Name == "" && !idnt.HasLibraryID() {
		return Identity{}, ErrEmptyIdentity
	}

	return idnt, nil
}

// NewAlbum creates an album identity. id may be UnknownID provided that at
// least one of the names is non-empty.
func NewAlbum(name, artistName string, id int64) (Identity, error) {
	idnt := Identity{
		Kind:       KindAlbum,
		Name:       strings.TrimSpace(name),
		ArtistName: strings.TrimSpace(artistName),
		ID:         id,
	}

	if idnt.Name == "" && idnt.ArtistName == "" && !idnt.HasLibraryID() {
		return Identity{}, ErrEmptyIdentity
	}

	return idnt, nil
}

// HasLibraryID returns true when the host library supplied a usable identifier
// for this item.
func (i Identity) HasLibraryID() bool {
	return i.ID != UnknownID && i.ID >= 0
}

// String is the label under which the identity appears in logs.
func (i Identity) String() string {
	if i.Kind == KindAlbum {
		return fmt.Sprintf("album{%s/%s, id=%d}", i.ArtistName, i.Name, i.ID)
	}
	return fmt.Sprintf("artist{%s, id=%d}", i.Name, i.ID)
}

// Enumerator is implemented by the host music library. It is consumed by the
// backfill orchestrator for walking over everything which may need artwork.
type Enumerator interface {
	// ListAlbums returns all albums known to the host in its own order.
	ListAlbums(ctx context.Context) ([]Identity, error)

	// ListArtists returns all artists known to the host in its own order.
	ListArtists(ctx context.Context) ([]Identity, error)
}
