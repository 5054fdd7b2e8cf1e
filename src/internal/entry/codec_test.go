package entry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToYAML_MinimalEntry(t *testing.T) {
	f := NewFields()
	f.Set(KeyType, "article")
	e := New("dummy", f)
	out, err := e.ToYAML()
	require.NoError(t, err)
	assert.Equal(t, "---\ndummy:\n  ENTRYTYPE: article\n  ID: dummy\n...\n", out)
}

func TestYAML_RoundTrip(t *testing.T) {
	e := sample()
	e.Fields.Set("abstract", "line one\nline two")
	e.Fields.Set("note", "")
	e.Fields.SetList("file", []string{"/a.pdf", "/b.pdf"})
	out, err := e.ToYAML()
	require.NoError(t, err)

	b, dups, err := ParseYAML(out)
	require.NoError(t, err)
	assert.Empty(t, dups)
	got, err := b.Only()
	require.NoError(t, err)
	assert.True(t, e.Equal(got), "round trip changed entry:\n%s", out)
	assert.Equal(t, "2020", got.Fields.String("year"))
}

func TestParseYAML_MultiDocAndDuplicates(t *testing.T) {
	in := "---\na:\n  ENTRYTYPE: book\n...\n---\nb:\n  ENTRYTYPE: article\n...\n---\na:\n  ENTRYTYPE: misc\n...\n"
	b, dups, err := ParseYAML(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, dups)
	assert.Equal(t, []string{"b", "a"}, b.Labels())
	e, _ := b.Get("a")
	assert.Equal(t, "misc", e.Type())
	assert.Equal(t, "a", e.Fields.String(KeyID))
}

func TestParseYAML_Empty(t *testing.T) {
	b, _, err := ParseYAML("")
	require.NoError(t, err)
	assert.Equal(t, 0, b.Len())
}

func TestParseYAML_RejectsNested(t *testing.T) {
	_, _, err := ParseYAML("x:\n  author:\n    name: y\n")
	assert.Error(t, err)
	_, _, err = ParseYAML("- a\n- b\n")
	assert.Error(t, err)
}

func TestToBibTeX_Format(t *testing.T) {
	e := sample()
	out := e.ToBibTeX()
	want := "@article{Doe2020,\n" +
		"  author = {Jane Doe and John Roe},\n" +
		"  title = {On Things},\n" +
		"  year = {2020}\n" +
		"}\n"
	assert.Equal(t, want, out)
}

func TestBibTeX_RoundTrip(t *testing.T) {
	e := sample()
	e.Fields.Set("journal", "{IEEE} Trans.")
	b, err := ParseBibTeX(e.ToBibTeX())
	require.NoError(t, err)
	got, err := b.Only()
	require.NoError(t, err)
	assert.True(t, e.Equal(got))
}

func TestBibTeX_UnbalancedBracesEscaped(t *testing.T) {
	e := sample()
	e.Fields.Set("note", "a } b")
	out := e.ToBibTeX()
	assert.Contains(t, out, `note = {a \} b}`)
	b, err := ParseBibTeX(out)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Len())
}

func TestParseBibTeX_Variants(t *testing.T) {
	in := `% a comment line
@comment{ignored {nested} }
@string{foo = "bar"}
@Article{Key1,
  Title = "Quoted Title",
  year = 2021,
  Journal = {Nested {Braces} Here}
}
@book(Key2, title = {B})
`
	b, err := ParseBibTeX(in)
	require.NoError(t, err)
	require.Equal(t, []string{"Key1", "Key2"}, b.Labels())
	k1, _ := b.Get("Key1")
	assert.Equal(t, "article", k1.Type())
	assert.Equal(t, "Quoted Title", k1.Fields.String("Title"))
	assert.Equal(t, "2021", k1.Fields.String("year"))
	assert.Equal(t, "Nested {Braces} Here", k1.Fields.String("Journal"))
	k2, _ := b.Get("Key2")
	assert.Equal(t, "book", k2.Type())
}

func TestParseBibTeX_Errors(t *testing.T) {
	_, err := ParseBibTeX("@article{nokey")
	assert.Error(t, err)
	_, err = ParseBibTeX("@article{k, title {x}}")
	assert.Error(t, err)
	b, err := ParseBibTeX(strings.Repeat(" ", 4))
	require.NoError(t, err)
	assert.Equal(t, 0, b.Len())
}

func TestBibTeX_MinimalEntryRoundTrip(t *testing.T) {
	f := NewFields()
	f.Set(KeyType, "article")
	e := New("Doe2020", f)
	out := e.ToBibTeX()
	assert.Equal(t, "@article{Doe2020,\n}\n", out)

	b, err := ParseBibTeX(out)
	require.NoError(t, err)
	got, err := b.Only()
	require.NoError(t, err)
	assert.True(t, e.Equal(got))
}

func TestParseBibTeX_RecordWithoutFields(t *testing.T) {
	b, err := ParseBibTeX("@misc{a}\n@book(b)\n@article{c, title = {C}}\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, b.Labels())
	a, _ := b.Get("a")
	assert.Equal(t, "misc", a.Type())
	assert.Equal(t, []string{KeyType, KeyID}, a.Fields.sortedKeys())

	_, err = ParseBibTeX("@misc{}")
	assert.Error(t, err)
}

func TestBibTeX_TrailingBackslashRoundTrip(t *testing.T) {
	for _, v := range []string{`C:\path\`, `odd\\\`, `even\\`, `a } b\`} {
		e := sample()
		e.Fields.Set("note", v)
		b, err := ParseBibTeX(e.ToBibTeX())
		require.NoError(t, err, v)
		got, err := b.Only()
		require.NoError(t, err, v)
		if v == `a } b\` {
			assert.Equal(t, `a \} b\`, got.Fields.String("note"))
			continue
		}
		assert.Equal(t, v, got.Fields.String("note"))
	}
}
