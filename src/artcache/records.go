package artcache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vankolev/coverd/src/library"
)

// Lookup tells what the cache knows about this identity. It is synchronous,
// reads only the database and never touches the network. A StateUnknown
// record means resolution was never attempted, the caller should resolve.
func (c *Cache) Lookup(ctx context.Context, id library.Identity) (Record, error) {
	var rec Record

	work := func(db *sql.DB) error {
		query, args := lookupQuery(id)

		smt, err := db.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("preparing cache lookup: %w", err)
		}
		defer smt.Close()

		var (
			mbid     string
			imgPath  string
			notFound bool
		)
		err = smt.QueryRowContext(ctx, args...).Scan(&mbid, &imgPath, &notFound)
		if err == sql.ErrNoRows {
			rec = Record{State: StateUnknown}
			return nil
		} else if err != nil {
			return fmt.Errorf("cache lookup: %w", err)
		}

		if notFound {
			rec = Record{State: StateNotFound}
			return nil
		}

		rec = Record{State: StateFound, Path: imgPath, MusicBrainzID: mbid}
		return nil
	}
	if err := c.executeDBJobAndWait(work); err != nil {
		return Record{}, err
	}

	return rec, nil
}

// Store writes the resolution outcome for this identity. A non-empty image
// is placed in the content-addressed store and recorded as found. An empty
// image records "resolution exhausted, nothing found". Any previous record
// for the identity is replaced and its file removed.
//
// When writing the image file fails no record is written at all. A missing
// record reads as StateUnknown which is retryable, unlike a record pointing
// at a file which does not exist.
func (c *Cache) Store(
	ctx context.Context,
	id library.Identity,
	mbid string,
	image []byte,
) error {
	var imgPath string
	if len(image) > 0 {
		var err error
		imgPath, err = c.writeImageFile(id, mbid, image)
		if err != nil {
			return &StorageError{Err: err}
		}
	}

	var replaced []replacedFile
	work := func(db *sql.DB) error {
		var err error
		replaced, err = deleteRecords(ctx, db, id)
		if err != nil {
			return err
		}

		return insertRecord(ctx, db, id, mbid, imgPath, len(image) == 0)
	}
	if err := c.executeDBJobAndWait(work); err != nil {
		return err
	}

	for _, old := range replaced {
		if old.fullPath || old.path == imgPath {
			continue
		}
		c.removeImageFile(old.path)
	}

	return nil
}

// Invalidate removes the record for this identity together with its stored
// file, forcing the next Lookup to come out StateUnknown. Invalidating an
// identity without a record is a no-op.
func (c *Cache) Invalidate(ctx context.Context, id library.Identity) error {
	var replaced []replacedFile
	work := func(db *sql.DB) error {
		var err error
		replaced, err = deleteRecords(ctx, db, id)
		return err
	}
	if err := c.executeDBJobAndWait(work); err != nil {
		return err
	}

	for _, old := range replaced {
		if old.fullPath {
			continue
		}
		c.removeImageFile(old.path)
	}

	return nil
}

// ClearAll drops every record of the given kind along with the stored files.
func (c *Cache) ClearAll(ctx context.Context, kind library.ItemKind) error {
	work := func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, "DELETE FROM "+tableFor(kind))
		if err != nil {
			return fmt.Errorf("clearing %s cache: %w", kind, err)
		}
		return nil
	}
	if err := c.executeDBJobAndWait(work); err != nil {
		return err
	}

	if err := c.storage.RemoveAll(artDir(kind)); err != nil {
		return fmt.Errorf("removing %s image files: %w", kind, err)
	}

	return nil
}

// ClearNotFound drops only the negative records of the given kind so that a
// later pass may retry entities which previously came up empty. Successful
// records are left alone.
func (c *Cache) ClearNotFound(ctx context.Context, kind library.ItemKind) error {
	work := func(db *sql.DB) error {
		_, err := db.ExecContext(
			ctx,
			"DELETE FROM "+tableFor(kind)+" WHERE not_found = 1",
		)
		if err != nil {
			return fmt.Errorf("clearing not-found %s records: %w", kind, err)
		}
		return nil
	}

	return c.executeDBJobAndWait(work)
}

func tableFor(kind library.ItemKind) string {
	if kind == library.KindAlbum {
		return "albums_art"
	}
	return "artists_art"
}

// matchClause builds the WHERE clause with which records for this identity
// are found. Identities with a valid host library ID match by it alone,
// everything else falls back to the normalized names.
func matchClause(id library.Identity) (string, []interface{}) {
	switch {
	case id.Kind == library.KindAlbum && id.HasLibraryID():
		return "album_id = ?", []interface{}{id.ID}
	case id.Kind == library.KindAlbum:
		return "name = ? AND artist_name = ?", []interface{}{
			library.NormalizedName(id.Name),
			library.NormalizedName(id.ArtistName),
		}
	case id.HasLibraryID():
		return "artist_id = ?", []interface{}{id.ID}
	default:
		return "name = ?", []interface{}{library.NormalizedName(id.Name)}
	}
}

func lookupQuery(id library.Identity) (string, []interface{}) {
	clause, args := matchClause(id)
	query := fmt.Sprintf(`
		SELECT
			mbid,
			image_file,
			not_found
		FROM
			%s
		WHERE
			%s
		LIMIT 1
	`, tableFor(id.Kind), clause)

	return query, args
}

// replacedFile is a stored image about to lose its record. Legacy album
// records flagged with full_path point at files outside of the store which
// must never be deleted.
type replacedFile struct {
	path     string
	fullPath bool
}

func deleteRecords(
	ctx context.Context,
	db *sql.DB,
	id library.Identity,
) ([]replacedFile, error) {
	clause, args := matchClause(id)

	fileColumns := "image_file, 0"
	if id.Kind == library.KindAlbum {
		fileColumns = "image_file, full_path"
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`
		SELECT
			%s
		FROM
			%s
		WHERE
			%s
	`, fileColumns, tableFor(id.Kind), clause), args...)
	if err != nil {
		return nil, fmt.Errorf("selecting replaced records: %w", err)
	}

	var replaced []replacedFile
	for rows.Next() {
		var file replacedFile
		if err := rows.Scan(&file.path, &file.fullPath); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scanning replaced record: %w", err)
		}
		if file.path != "" {
			replaced = append(replaced, file)
		}
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM %s WHERE %s
	`, tableFor(id.Kind), clause), args...)
	if err != nil {
		return nil, fmt.Errorf("deleting cache records: %w", err)
	}

	return replaced, nil
}

func insertRecord(
	ctx context.Context,
	db *sql.DB,
	id library.Identity,
	mbid string,
	imgPath string,
	notFound bool,
) error {
	var libraryID interface{}
	if id.HasLibraryID() {
		libraryID = id.ID
	}

	var err error
	if id.Kind == library.KindAlbum {
		_, err = db.ExecContext(ctx, `
			INSERT INTO
				albums_art (album_id, name, artist_name, mbid,
					image_file, not_found, full_path, updated_at)
			VALUES
				(?, ?, ?, ?, ?, ?, 0, ?)
		`,
			libraryID,
			library.NormalizedName(id.Name),
			library.NormalizedName(id.ArtistName),
			mbid,
			imgPath,
			notFound,
			time.Now().Unix(),
		)
	} else {
		_, err = db.ExecContext(ctx, `
			INSERT INTO
				artists_art (artist_id, name, mbid,
					image_file, not_found, updated_at)
			VALUES
				(?, ?, ?, ?, ?, ?)
		`,
			libraryID,
			library.NormalizedName(id.Name),
			mbid,
			imgPath,
			notFound,
			time.Now().Unix(),
		)
	}
	if err != nil {
		return fmt.Errorf("inserting cache record: %w", err)
	}

	return nil
}
