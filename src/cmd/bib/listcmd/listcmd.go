package listcmd

import (
    "fmt"
    "io"
    "sort"
    "strings"

    "github.com/spf13/cobra"

    "bibdb/src/internal/entry"
    "bibdb/src/internal/names"
    "bibdb/src/internal/session"
    "bibdb/src/internal/stringsx"
)

// New returns the list command which filters and tabulates entries.
func New(s *session.Session) *cobra.Command {
    var includes, excludes []string
    var or, reverse bool
    var sortBy string
    cmd := &cobra.Command{
        Use:   "list",
        Short: "List entries, filtered with --include/--exclude field=substring",
        Args:  cobra.NoArgs,
        RunE: func(cmd *cobra.Command, args []string) error {
            filter, err := buildFilter(includes, excludes)
            if err != nil { return err }
            db := s.DB()
            if err := db.Load(); err != nil { return err }
            out := selectEntries(db.Entries(), filter, or, sortBy, reverse)
            s.Log.Component("list").Debug().Int("matched", len(out)).Int("total", db.Len()).Msg("listing entries")
            renderEntries(cmd.OutOrStdout(), out)
            return nil
        },
    }
    cmd.Flags().StringArrayVarP(&includes, "include", "i", nil, "keep entries whose field contains the substring (field=substring, repeatable)")
    cmd.Flags().StringArrayVarP(&excludes, "exclude", "x", nil, "drop entries whose field contains the substring (field=substring, repeatable)")
    cmd.Flags().BoolVar(&or, "or", false, "combine filters with OR instead of AND")
    cmd.Flags().StringVarP(&sortBy, "sort", "s", "", "sort by this field")
    cmd.Flags().BoolVarP(&reverse, "reverse", "r", false, "reverse the order")
    return cmd
}

func buildFilter(includes, excludes []string) (entry.Filter, error) {
    f := entry.Filter{}
    add := func(raw string, include bool) error {
        k, v, ok := stringsx.KeyValue(raw)
        if !ok { return fmt.Errorf("invalid filter %q, expected field=substring", raw) }
        key := entry.FilterKey{Field: k, Include: include}
        f[key] = append(f[key], v)
        return nil
    }
    for _, raw := range includes { if err := add(raw, true); err != nil { return nil, err } }
    for _, raw := range excludes { if err := add(raw, false); err != nil { return nil, err } }
    return f, nil
}

// selectEntries keeps matching entries. Without filters every entry is kept,
// regardless of or.
func selectEntries(all []*entry.Entry, f entry.Filter, or bool, sortBy string, reverse bool) []*entry.Entry {
    out := make([]*entry.Entry, 0, len(all))
    for _, e := range all { if len(f) == 0 || e.Matches(f, or) { out = append(out, e) } }
    if sortBy != "" {
        sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Fields.String(sortBy)) < strings.ToLower(out[j].Fields.String(sortBy)) })
    }
    if reverse {
        for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 { out[i], out[j] = out[j], out[i] }
    }
    return out
}

func renderEntries(w io.Writer, es []*entry.Entry) {
    rows := make([][]string, 0, len(es))
    for _, e := range es { rows = append(rows, []string{e.Label, e.Type(), e.Fields.String("title"), firstAuthor(e)}) }
    renderTable(w, []string{"label", "type", "title", "author"}, rows)
}

func firstAuthor(e *entry.Entry) string {
    parts := strings.Split(e.Fields.String("author"), " and ")
    a := strings.TrimSpace(parts[0])
    if sur := names.Surname(a); sur != "" { a = sur }
    if len(parts) > 1 { a += " et al." }
    return a
}

func renderTable(w io.Writer, headers []string, rows [][]string) { widths:=computeColWidths(headers, rows); writeColumns(w, headers, widths); writeSeparator(w, widths); writeRows(w, rows, widths) }
func computeColWidths(headers []string, rows [][]string) []int { widths:=make([]int,len(headers)); for i,h := range headers { widths[i]=len(h) }; for _, r := range rows { for i := range headers { if i < len(r) { if l := len(r[i]); l > widths[i] { widths[i] = l } } } }; return widths }
func writeSeparator(w io.Writer, widths []int) { cols:=make([]string,len(widths)); for i,width := range widths { cols[i]=strings.Repeat("-", width) }; writeColumns(w, cols, widths) }
func writeRows(w io.Writer, rows [][]string, widths []int) { for _, r := range rows { writeColumns(w, r, widths) } }
func writeColumns(w io.Writer, cols []string, widths []int) { for i,width:= range widths { val := ""; if i < len(cols) { val = cols[i] }; _, _ = fmt.Fprintf(w, "%-*s", width, val); if i != len(widths)-1 { _, _ = fmt.Fprint(w, "  ") } }; _, _ = fmt.Fprint(w, "\n") }
