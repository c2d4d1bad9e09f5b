package apoc

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"image"

	"github.com/bodgit/apoc/pck"
	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

// Catalog is a database of every sprite decoded from a set of sheets.
// Pixels are stored zstd compressed alongside a content hash, so identical
// sprites can be found across sheets.
type Catalog struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Sprite is the catalog entry for one decoded sprite.
type Sprite struct {
	Sheet  string
	Index  int
	Width  int
	Height int
	Tight  image.Rectangle
	Hash   string
}

// NewCatalog opens or creates the catalog in file.
func NewCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	// Sheets are written from several scan workers at once.
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS sheet (id INTEGER PRIMARY KEY NOT NULL, path TEXT NOT NULL UNIQUE, format TEXT NOT NULL, count INTEGER NOT NULL, max_width INTEGER NOT NULL, max_height INTEGER NOT NULL)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS sprite (sheet_id INTEGER NOT NULL, idx INTEGER NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, min_x INTEGER NOT NULL, min_y INTEGER NOT NULL, max_x INTEGER NOT NULL, max_y INTEGER NOT NULL, hash TEXT NOT NULL, pix BLOB NOT NULL, PRIMARY KEY(sheet_id, idx), FOREIGN KEY(sheet_id) REFERENCES sheet(id) ON DELETE CASCADE)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE INDEX IF NOT EXISTS sprite_hash ON sprite (hash)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS failure (sheet_id INTEGER NOT NULL, idx INTEGER NOT NULL, error TEXT NOT NULL, PRIMARY KEY(sheet_id, idx), FOREIGN KEY(sheet_id) REFERENCES sheet(id) ON DELETE CASCADE)"); err != nil {
		return nil, err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}

	return &Catalog{
		db:  db,
		enc: enc,
		dec: dec,
	}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	c.enc.Close()
	c.dec.Close()
	return c.db.Close()
}

// Hash returns the content hash stored for m. It covers the dimensions as
// well as the pixels.
func Hash(m *pck.Image) string {
	h := xxhash.New()
	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[0:], uint32(m.Width))
	binary.LittleEndian.PutUint32(dims[4:], uint32(m.Height))
	h.Write(dims[:])
	h.Write(m.Pix)
	return fmt.Sprintf("%016X", h.Sum64())
}

// AddSheet stores every sprite of s under path, replacing anything
// previously stored for that path, and returns the sheet id.
func (c *Catalog) AddSheet(path string, f pck.Format, s *pck.ImageSet) (int64, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM sheet WHERE path = ?", path); err != nil {
		return 0, err
	}

	result, err := tx.Exec("INSERT INTO sheet (path, format, count, max_width, max_height) VALUES (?, ?, ?, ?, ?)", path, f.String(), s.Len(), s.MaxWidth(), s.MaxHeight())
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i := 0; i < s.Len(); i++ {
		if err := s.Err(i); err != nil {
			if _, err := tx.Exec("INSERT INTO failure (sheet_id, idx, error) VALUES (?, ?, ?)", id, i, err.Error()); err != nil {
				return 0, err
			}
			continue
		}
		m := s.Image(i)
		if m == nil {
			continue
		}
		t := m.Tight()
		if _, err := tx.Exec("INSERT INTO sprite (sheet_id, idx, width, height, min_x, min_y, max_x, max_y, hash, pix) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", id, i, m.Width, m.Height, t.Min.X, t.Min.Y, t.Max.X, t.Max.Y, Hash(m), c.enc.EncodeAll(m.Pix, nil)); err != nil {
			return 0, err
		}
	}

	return id, tx.Commit()
}

func (c *Catalog) sprites(query string, args ...interface{}) ([]Sprite, error) {
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sprites []Sprite
	for rows.Next() {
		var s Sprite
		if err := rows.Scan(&s.Sheet, &s.Index, &s.Width, &s.Height, &s.Tight.Min.X, &s.Tight.Min.Y, &s.Tight.Max.X, &s.Tight.Max.Y, &s.Hash); err != nil {
			return nil, err
		}
		sprites = append(sprites, s)
	}
	return sprites, rows.Err()
}

const spriteColumns = "SELECT h.path, s.idx, s.width, s.height, s.min_x, s.min_y, s.max_x, s.max_y, s.hash FROM sprite AS s JOIN sheet AS h ON s.sheet_id = h.id"

// Sprites returns every sprite stored for the sheet at path, in index order.
func (c *Catalog) Sprites(path string) ([]Sprite, error) {
	return c.sprites(spriteColumns+" WHERE h.path = ? ORDER BY s.idx", path)
}

// FindByHash returns every sprite with the given content hash.
func (c *Catalog) FindByHash(hash string) ([]Sprite, error) {
	return c.sprites(spriteColumns+" WHERE s.hash = ? ORDER BY h.path, s.idx", hash)
}

// Failures returns the error recorded for each sprite of the sheet at path
// that failed to decode.
func (c *Catalog) Failures(path string) (map[int]string, error) {
	rows, err := c.db.Query("SELECT f.idx, f.error FROM failure AS f JOIN sheet AS h ON f.sheet_id = h.id WHERE h.path = ?", path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	failures := make(map[int]string)
	for rows.Next() {
		var idx int
		var msg string
		if err := rows.Scan(&idx, &msg); err != nil {
			return nil, err
		}
		failures[idx] = msg
	}
	return failures, rows.Err()
}

// Image returns sprite idx of the sheet at path, or nil if there is no such
// sprite.
func (c *Catalog) Image(path string, idx int) (*pck.Image, error) {
	var width, height int
	var blob []byte
	switch err := c.db.QueryRow("SELECT s.width, s.height, s.pix FROM sprite AS s JOIN sheet AS h ON s.sheet_id = h.id WHERE h.path = ? AND s.idx = ?", path, idx).Scan(&width, &height, &blob); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		pix, err := c.dec.DecodeAll(blob, nil)
		if err != nil {
			return nil, err
		}
		m, err := pck.NewImage(width, height, pix)
		if err != nil {
			return nil, err
		}
		m.Index = idx
		return m, nil
	default:
		return nil, err
	}
}

// Sheets returns the number of sheets stored.
func (c *Catalog) Sheets() (int, error) {
	var n int
	err := c.db.QueryRow("SELECT COUNT(*) FROM sheet").Scan(&n)
	return n, err
}
