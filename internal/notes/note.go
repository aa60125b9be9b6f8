// Package notes implements the note storage subsystem: markdown files
// under the configured notes directory, an SQLite cache that backs search,
// per-save version history, and a recently-deleted holding area. File
// content is the source of truth; the database is an index that can always
// be rebuilt from the directory.
package notes

import "time"

// Info describes one note as listed to the frontend.
type Info struct {
	Name       string    `json:"name"`
	Title      string    `json:"title"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
}

// SearchResult is one search hit with a content snippet around the match.
type SearchResult struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Version identifies one stored historical copy of a note.
type Version struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Size      int64     `json:"size"`
}

// DeletedNote is one entry in the recently-deleted area.
type DeletedNote struct {
	Name      string    `json:"name"`
	DeletedAt time.Time `json:"deleted_at"`
	Size      int64     `json:"size"`
}

// Frontmatter is the optional YAML header of a note. All fields are
// optional; notes without a header are plain markdown.
type Frontmatter struct {
	Title string   `yaml:"title,omitempty"`
	Tags  []string `yaml:"tags,omitempty"`
}
