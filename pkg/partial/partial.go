// Package partial recovers a filename and file content from tool arguments
// that are still streaming. Results are approximate: a value may be cut
// short or, for badly broken input, missing. The only guarantee is that
// nothing panics.
package partial

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"
)

var (
	filenameKeys = []string{"file_path", "filepath", "filename", "path", "target_file"}
	contentKeys  = []string{"content", "contents", "new_string", "code", "text"}
)

// Extract is what could be recovered from a partial argument object
type Extract struct {
	Filename    string
	Content     string
	HasFilename bool
	HasContent  bool
}

// TryExtractPartial returns the recognised fields of raw, or nil when none
// could be found
func TryExtractPartial(raw string) *Extract {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if gjson.Valid(raw) {
		return fromJSON(raw)
	}
	// Repair re-escapes an open string's escapes, so open strings are
	// decoded by the scan and repair only covers what it cannot read.
	if ex := scan(raw); ex != nil {
		return ex
	}
	if fixed, err := jsonrepair.JSONRepair(raw); err == nil && gjson.Valid(fixed) {
		return fromJSON(fixed)
	}
	return nil
}

func fromJSON(doc string) *Extract {
	root := gjson.Parse(doc)
	if !root.IsObject() {
		return nil
	}
	ex := &Extract{}
	ex.Filename, ex.HasFilename = firstString(root, filenameKeys)
	ex.Content, ex.HasContent = firstString(root, contentKeys)
	return ex.orNil()
}

func firstString(root gjson.Result, keys []string) (string, bool) {
	for _, key := range keys {
		v := root.Get(gjson.Escape(key))
		if v.Type == gjson.String {
			return v.Str, true
		}
	}
	return "", false
}

func scan(raw string) *Extract {
	ex := &Extract{}
	ex.Filename, ex.HasFilename = scanKeys(raw, filenameKeys)
	ex.Content, ex.HasContent = scanKeys(raw, contentKeys)
	return ex.orNil()
}

func (e *Extract) orNil() *Extract {
	if !e.HasFilename && !e.HasContent {
		return nil
	}
	return e
}

func scanKeys(raw string, keys []string) (string, bool) {
	for _, key := range keys {
		if v, ok := scanKey(raw, key); ok {
			return v, true
		}
	}
	return "", false
}

// scanKey finds `"key": "` and decodes the string that follows, stopping at
// the closing quote or the end of input
func scanKey(raw, key string) (string, bool) {
	needle := `"` + key + `"`
	from := 0
	for {
		i := strings.Index(raw[from:], needle)
		if i < 0 {
			return "", false
		}
		pos := skipSpace(raw, from+i+len(needle))
		from += i + len(needle)
		if pos >= len(raw) || raw[pos] != ':' {
			continue
		}
		pos = skipSpace(raw, pos+1)
		if pos >= len(raw) || raw[pos] != '"' {
			continue
		}
		return unquotePrefix(raw[pos+1:]), true
	}
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func unquotePrefix(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '"':
			return b.String()
		case c != '\\':
			r, size := utf8.DecodeRuneInString(s[i:])
			b.WriteRune(r)
			i += size
			continue
		case i+1 >= len(s):
			// dangling escape
			return b.String()
		}

		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'u':
			if i+6 > len(s) {
				return b.String()
			}
			n, err := strconv.ParseUint(s[i+2:i+6], 16, 32)
			if err != nil {
				return b.String()
			}
			b.WriteRune(rune(n))
			i += 6
			continue
		default:
			b.WriteByte(s[i+1])
		}
		i += 2
	}
	return b.String()
}
