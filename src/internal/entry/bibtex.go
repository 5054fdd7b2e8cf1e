package entry

import (
	"bytes"
	"fmt"
	"strings"
)

type bibRecord struct {
	typ    string
	key    string
	fields *Fields
}

// ToBibTeX renders the entry as a BibTeX record. Non-reserved fields are
// written in sorted order; list values are joined with ", ".
func (e *Entry) ToBibTeX() string {
	typ := strings.TrimSpace(e.Type())
	if typ == "" {
		typ = "misc"
	}
	fields := NewFields()
	for _, k := range e.Fields.sortedKeys() {
		if k == KeyID || k == KeyType {
			continue
		}
		fields.Set(k, e.Fields.String(k))
	}
	return renderRecord(bibRecord{typ: typ, key: e.Label, fields: fields})
}

func renderRecord(r bibRecord) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "@%s{%s,\n", r.typ, r.key)
	keys := r.fields.Keys()
	for i, k := range keys {
		sep := ","
		if i == len(keys)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "  %s = {%s}%s\n", k, bibValue(r.fields.String(k)), sep)
	}
	b.WriteString("}\n")
	return b.String()
}

// bibValue escapes s for a braced value. A value ending in an odd run of
// backslashes gets a trailing space so the closing brace is not escaped; the
// reader trims it again.
func bibValue(s string) string {
	s = escapeBib(s)
	run := len(s) - len(strings.TrimRight(s, `\`))
	if run%2 == 1 {
		s += " "
	}
	return s
}

// escapeBib backslash-escapes braces only when the value's braces do not
// balance, so that well-formed LaTeX groups survive unchanged.
func escapeBib(s string) string {
	if balanced(s) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			b.WriteByte(c)
			b.WriteByte(s[i+1])
			i++
			continue
		}
		if c == '{' || c == '}' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

func balanced(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// ParseBibTeX reads every record in s into a Batch. The citation key becomes
// the label, the lower-cased record type the ENTRYTYPE. @comment, @preamble
// and @string blocks are skipped. Values are whitespace-trimmed; a record may
// have no fields at all.
func ParseBibTeX(s string) (*Batch, error) {
	recs, err := parseBib(s)
	if err != nil {
		return nil, err
	}
	b := NewBatch()
	for _, r := range recs {
		f := NewFields()
		f.Set(KeyID, r.key)
		f.Set(KeyType, r.typ)
		for _, k := range r.fields.Keys() {
			f.Set(k, r.fields.String(k))
		}
		b.Set(New(r.key, f))
	}
	return b, nil
}

func parseBib(s string) ([]bibRecord, error) {
	i := 0
	n := len(s)
	var recs []bibRecord
	skipWS := func() {
		for i < n {
			if s[i] == '%' {
				for i < n && s[i] != '\n' {
					i++
				}
				continue
			}
			if strings.IndexByte(" \t\r\n", s[i]) >= 0 {
				i++
			} else {
				break
			}
		}
	}
	readIdent := func() string {
		start := i
		for i < n && isIdentByte(s[i]) {
			i++
		}
		return s[start:i]
	}
	// skipBlock advances past a balanced {...} or (...) group starting at i.
	skipBlock := func() error {
		open := s[i]
		closer := byte('}')
		if open == '(' {
			closer = ')'
		}
		depth := 0
		for i < n {
			switch s[i] {
			case open:
				depth++
			case closer:
				depth--
				if depth == 0 {
					i++
					return nil
				}
			}
			i++
		}
		return fmt.Errorf("invalid bib: unterminated block")
	}
	for {
		skipWS()
		if i >= n {
			break
		}
		if s[i] != '@' {
			i++
			continue
		}
		i++
		skipWS()
		typ := strings.ToLower(readIdent())
		skipWS()
		if i >= n || (s[i] != '{' && s[i] != '(') {
			return nil, fmt.Errorf("invalid bib: expected '{' after @%s", typ)
		}
		switch typ {
		case "comment", "preamble", "string":
			if err := skipBlock(); err != nil {
				return nil, err
			}
			continue
		}
		i++
		skipWS()
		start := i
		for i < n && s[i] != ',' && s[i] != '}' && s[i] != ')' {
			i++
		}
		if i >= n {
			return nil, fmt.Errorf("invalid bib: unterminated key")
		}
		key := strings.TrimSpace(s[start:i])
		if key == "" {
			return nil, fmt.Errorf("invalid bib: missing key after @%s", typ)
		}
		fields := NewFields()
		if s[i] != ',' {
			// @misc{key} has no fields.
			i++
			recs = append(recs, bibRecord{typ: typ, key: key, fields: fields})
			continue
		}
		i++
		for {
			skipWS()
			if i >= n {
				return nil, fmt.Errorf("invalid bib: unexpected EOF in fields of %s", key)
			}
			if s[i] == '}' || s[i] == ')' {
				i++
				break
			}
			fname := strings.TrimSpace(readIdent())
			if fname == "" {
				return nil, fmt.Errorf("invalid bib: expected field name in %s", key)
			}
			skipWS()
			if i >= n || s[i] != '=' {
				return nil, fmt.Errorf("invalid bib: expected '=' after field name %s", fname)
			}
			i++
			skipWS()
			val := ""
			if i < n && s[i] == '{' {
				depth := 0
				i++
				vstart := i
				for i < n {
					if s[i] == '\\' {
						i += 2
						continue
					}
					if s[i] == '{' {
						depth++
						i++
						continue
					}
					if s[i] == '}' {
						if depth == 0 {
							val = s[vstart:i]
							i++
							break
						}
						depth--
						i++
						continue
					}
					i++
				}
			} else if i < n && s[i] == '"' {
				i++
				vstart := i
				for i < n {
					if s[i] == '\\' {
						i += 2
						continue
					}
					if s[i] == '"' {
						val = s[vstart:i]
						i++
						break
					}
					i++
				}
			} else {
				vstart := i
				for i < n && s[i] != ',' && s[i] != '}' && s[i] != ')' {
					i++
				}
				val = s[vstart:i]
			}
			fields.Set(fname, strings.TrimSpace(val))
			skipWS()
			if i < n && s[i] == ',' {
				i++
				continue
			}
			if i < n && (s[i] == '}' || s[i] == ')') {
				i++
				break
			}
		}
		recs = append(recs, bibRecord{typ: typ, key: key, fields: fields})
	}
	return recs, nil
}

func isIdentByte(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') ||
		c == '_' || c == '-' || c == ':' || c == '.'
}
