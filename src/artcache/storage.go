package artcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"path"

	"github.com/spf13/afero"

	"github.com/vankolev/coverd/src/library"
)

const (
	albumArtDir  = "albumArt"
	artistArtDir = "artistArt"
)

// artDir returns the directory in the storage under which images for the
// given kind of identity live.
func artDir(kind library.ItemKind) string {
	if kind == library.KindAlbum {
		return albumArtDir
	}
	return artistArtDir
}

// contentFileName derives the file name for an identity's image from its
// identifying metadata. The same identity always maps to the same name, so
// re-storing the same image is idempotent, while two entities which merely
// share a display name end up in different files.
func contentFileName(id library.Identity, mbid string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d", id.ID)
	_, _ = io.WriteString(h, mbid)
	_, _ = io.WriteString(h, library.NormalizedName(id.Name))
	_, _ = io.WriteString(h, library.NormalizedName(id.ArtistName))

	return hex.EncodeToString(h.Sum(nil)) + ".jpg"
}

// writeImageFile stores the image bytes for this identity and returns the
// storage-relative path they were written to.
func (c *Cache) writeImageFile(
	id library.Identity,
	mbid string,
	image []byte,
) (string, error) {
	dir := artDir(id.Kind)
	if err := c.storage.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	imgPath := path.Join(dir, contentFileName(id, mbid))
	if err := afero.WriteFile(c.storage, imgPath, image, 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", imgPath, err)
	}

	return imgPath, nil
}

// ImageBytes reads the stored file a found record points at.
func (c *Cache) ImageBytes(rec Record) ([]byte, error) {
	if rec.State != StateFound || rec.Path == "" {
		return nil, fmt.Errorf("the record has no stored image")
	}

	return afero.ReadFile(c.storage, rec.Path)
}

// removeImageFile deletes a previously stored image. Failures are logged
// only, a leaked file is not worth failing the caller's operation over.
func (c *Cache) removeImageFile(imgPath string) {
	if imgPath == "" {
		return
	}
	if err := c.storage.Remove(imgPath); err != nil {
		log.Printf("Error removing artwork file %s: %s", imgPath, err)
	}
}
