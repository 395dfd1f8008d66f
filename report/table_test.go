package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTable_wide(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, []row{
		{"名前", "1.00%", "1/100"},
		{"name", "100.00%", "1/1"},
	}))
	assert.Equal(t, "名前    1.00%  1/100\nname  100.00%    1/1\n", buf.String())
}
