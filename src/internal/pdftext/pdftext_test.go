package pdftext

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_MissingFile(t *testing.T) {
	_, err := Reader{}.Text(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

func TestText_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.pdf")
	require.NoError(t, os.WriteFile(path, []byte("just some text, no xref"), 0o644))
	_, err := Reader{}.Text(path)
	assert.Error(t, err)
}
