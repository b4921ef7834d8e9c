package library

import (
	"context"
	"database/sql"
	"fmt"

	// Imported for its sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
)

// HostDB enumerates the artists and albums out of the host library's SQLite
// database. The host owns that database and its schema, coverd only ever
// reads from it.
type HostDB struct {
	db *sql.DB
}

// OpenHostDB opens the host library database found at databasePath.
func OpenHostDB(databasePath string) (*HostDB, error) {
	db, err := sql.Open("sqlite3", databasePath)
	if err != nil {
		return nil, fmt.Errorf("opening the host library database: %w", err)
	}
	db.SetMaxOpenConns(1)

	return &HostDB{db: db}, nil
}

// Close closes the connection to the host library database.
func (h *HostDB) Close() error {
	return h.db.Close()
}

// ListAlbums implements Enumerator by reading the host's albums table. An
// album's artist is the artist of its tracks or "Various Artists" when the
// tracks disagree.
func (h *HostDB) ListAlbums(ctx context.Context) ([]Identity, error) {
	rows, err := h.db.QueryContext(ctx, `
        SELECT
            al.id,
            al.name as album_name,
            CASE WHEN COUNT(DISTINCT tr.artist_id) = 1
            THEN ar.name
            ELSE "Various Artists"
            END as artist_name
        FROM
            albums al
            JOIN tracks tr ON tr.album_id = al.id
            JOIN artists ar ON ar.id = tr.artist_id
        GROUP BY
            al.id
        ORDER BY
            al.name ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("querying the host's albums: %w", err)
	}
	defer rows.Close()

	var output []Identity
	for rows.Next() {
		var (
			id               int64
			name, artistName string
		)
		if err := rows.Scan(&id, &name, &artistName); err != nil {
			return nil, err
		}

		idnt, err := NewAlbum(name, artistName, id)
		if err != nil {
			continue
		}
		output = append(output, idnt)
	}

	return output, rows.Err()
}

// ListArtists implements Enumerator by reading the host's artists table.
func (h *HostDB) ListArtists(ctx context.Context) ([]Identity, error) {
	rows, err := h.db.QueryContext(ctx, `
        SELECT
            ar.id,
            ar.name
        FROM
            artists ar
        ORDER BY
            ar.name ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("querying the host's artists: %w", err)
	}
	defer rows.Close()

	var output []Identity
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}

		idnt, err := NewArtist(name, id)
		if err != nil {
			continue
		}
		output = append(output, idnt)
	}

	return output, rows.Err()
}
