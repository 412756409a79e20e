package export_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medinsight/internal/export"
)

func sampleTable() export.Table {
	t := export.NewTable("Categories", "category", "count", "share_percent")
	t.Append("Medical", export.Int(12), export.Float(60))
	t.Append("Medication, otc", export.Int(8)) // padded
	return t
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, sampleTable()))

	out := buf.Bytes()
	require.True(t, bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}))
	assert.Equal(t,
		"category,count,share_percent\nMedical,12,60.0\n\"Medication, otc\",8,\n",
		string(out[3:]))
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteText(&buf, sampleTable()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Categories", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "category"))
	assert.Equal(t, strings.Index(lines[2], "count"), strings.Index(lines[3], "12"))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteJSON(&buf, map[string]int{"total": 3}))
	assert.JSONEq(t, `{"total":3}`, buf.String())
}

func TestCellFormatting(t *testing.T) {
	assert.Equal(t, "", export.OptionalFloat(nil))
	v := 12.345
	assert.Equal(t, "12.3", export.OptionalFloat(&v))
	assert.Equal(t, "-4", export.Int(-4))
}
