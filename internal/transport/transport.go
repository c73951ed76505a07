// Package transport reads and writes the CSV exchange format used between
// dump and import.
package transport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"binu8-translator/internal/container"
	"binu8-translator/internal/textutil"

	"github.com/rs/zerolog/log"
)

// Header is the column row written at the top of every CSV.
var Header = []string{"file", "id", "original", "translation"}

// Row is one string of one container. Text fields hold unescaped text.
type Row struct {
	File        string
	ID          int
	Original    string
	Translation string
}

// TranslationMap maps a forward-slash relative file path to the replacement
// text of each entry index. It is read-only once built.
type TranslationMap map[string]container.Translations

// For returns the translations for file, or nil when there are none.
func (m TranslationMap) For(file string) container.Translations {
	return m[file]
}

// Set records a translation; empty text is stored as is and means "keep the
// original".
func (m TranslationMap) Set(file string, id int, text string) {
	tr, ok := m[file]
	if !ok {
		tr = make(container.Translations)
		m[file] = tr
	}
	tr[id] = text
}

// Merge copies every non-empty translation of other into m, overwriting
// existing values.
func (m TranslationMap) Merge(other TranslationMap) {
	for file, tr := range other {
		for id, text := range tr {
			if text == "" {
				continue
			}
			m.Set(file, id, text)
		}
	}
}

// Len returns the number of non-empty translations.
func (m TranslationMap) Len() int {
	n := 0
	for _, tr := range m {
		for _, text := range tr {
			if text != "" {
				n++
			}
		}
	}
	return n
}

// WriteCSV writes the header followed by rows, escaping line breaks.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.File,
			strconv.Itoa(r.ID),
			textutil.Escape(r.Original),
			textutil.Escape(r.Translation),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %s#%d: %w", r.File, r.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ReadCSV parses rows from r. Columns are located by header name, so extra
// columns and reordering are tolerated.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := columnIndex(head)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		field := func(name string) string {
			i := cols[name]
			if i < len(rec) {
				return rec[i]
			}
			return ""
		}

		id, err := strconv.Atoi(field("id"))
		if err != nil {
			return nil, fmt.Errorf("csv line %d: invalid id %q: %w", line, field("id"), err)
		}

		rows = append(rows, Row{
			File:        field("file"),
			ID:          id,
			Original:    textutil.Unescape(field("original")),
			Translation: textutil.Unescape(field("translation")),
		})
	}
	return rows, nil
}

func columnIndex(head []string) (map[string]int, error) {
	cols := make(map[string]int, len(head))
	for i, name := range head {
		// tolerate a UTF-8 BOM written by spreadsheet tools
		if i == 0 && len(name) >= 3 && name[:3] == "\xef\xbb\xbf" {
			name = name[3:]
		}
		cols[name] = i
	}
	for _, name := range []string{"file", "id", "translation"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("csv header missing column %q", name)
		}
	}
	if _, ok := cols["original"]; !ok {
		cols["original"] = len(head)
	}
	return cols, nil
}

// BuildMap turns rows into a TranslationMap.
func BuildMap(rows []Row) TranslationMap {
	m := make(TranslationMap)
	for _, r := range rows {
		m.Set(r.File, r.ID, r.Translation)
	}
	return m
}

// Load reads the CSV at path into a TranslationMap. A missing file is not an
// error: it yields an empty map and every entry keeps its original text.
func Load(path string) (TranslationMap, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("path", path).Msg("CSV file not found, repacking with original strings")
			return make(TranslationMap), nil
		}
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, err
	}

	m := BuildMap(rows)
	log.Info().Str("path", path).Int("rows", len(rows)).Int("translations", m.Len()).Msg("Loaded translations")
	return m, nil
}

// Save writes rows to a new CSV file at path.
func Save(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv: %w", err)
	}

	log.Info().Str("path", path).Int("rows", len(rows)).Msg("Dumped strings to CSV")
	return nil
}
