// internal/app/system/roster/roster.go

// Package roster loads the authoritative list of eligible members.
//
// The roster source is a CSV of elected members with columns
// Name,Username,Email. It is read once at startup; the core treats
// usernames missing from it as ineligible for signup.
package roster

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/dalemusser/rollcall/internal/app/system/htmlsanitize"
	"github.com/dalemusser/rollcall/internal/app/system/normalize"
)

// Roster maps a canonical username to the member's display name.
type Roster map[string]string

// Parse reads roster rows from r, skipping a header row if present and
// ignoring malformed lines (matching how the original list was consumed).
func Parse(r io.Reader) (Roster, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	roster := make(Roster)
	first := true
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 2 {
			continue
		}

		// Spreadsheet exports often lead with a UTF-8 BOM.
		name := strings.TrimPrefix(strings.TrimSpace(rec[0]), "\uFEFF")
		username := normalize.Username(rec[1])

		// Header detection: first row labeled Name/Username.
		if first && strings.EqualFold(name, "name") && strings.EqualFold(strings.TrimSpace(rec[1]), "username") {
			first = false
			continue
		}
		first = false

		if username == "" {
			continue
		}
		roster[username] = htmlsanitize.StripTags(normalize.Name(name))
	}
	return roster, nil
}

// LoadFile parses the roster CSV at path.
func LoadFile(path string) (Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Eligible reports whether username appears on the roster.
func (r Roster) Eligible(username string) bool {
	_, ok := r[normalize.Username(username)]
	return ok
}

// DisplayName returns the roster display name for username, falling back
// to the username itself when the roster has no entry.
func (r Roster) DisplayName(username string) string {
	u := normalize.Username(username)
	if name, ok := r[u]; ok && name != "" {
		return name
	}
	return u
}
