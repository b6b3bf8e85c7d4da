package descname

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/kfcio/kfc/binio"
)

// writeLocaFixture builds a minimal localization resource with two
// entries, mirroring original_source's {unk0,count} header + fixed-size
// entry + trailing string-payload-region shape.
func writeLocaFixture(t *testing.T, path string) {
	t.Helper()

	encoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	one, err := encoder.String("Rifle\x00")
	require.NoError(t, err)
	two, err := encoder.String("Shotgun\x00")
	require.NoError(t, err)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := binio.NewSeekWriter(f)
	require.NoError(t, w.Padding(4)) // unk0
	require.NoError(t, w.U32(2))     // count

	// Two fixed-size entries (6 u32 fields each), positions tracked so the
	// offset fields can be pc-relative.
	entry1Pos, err := w.Pos()
	require.NoError(t, err)
	require.NoError(t, w.U32(100)) // key
	offsetFieldPos1 := entry1Pos + 4
	_ = offsetFieldPos1
	require.NoError(t, w.Padding(4)) // offset placeholder
	require.NoError(t, w.U32(uint32(len(one))))
	require.NoError(t, w.Padding(12)) // unk1,unk2,unk3

	entry2Pos, err := w.Pos()
	require.NoError(t, err)
	require.NoError(t, w.U32(200))
	require.NoError(t, w.Padding(4))
	require.NoError(t, w.U32(uint32(len(two))))
	require.NoError(t, w.Padding(12))

	str1Pos, err := w.Pos()
	require.NoError(t, err)
	_, err = f.Write(one)
	require.NoError(t, err)

	str2Pos, err := w.Pos()
	require.NoError(t, err)
	_, err = f.Write(two)
	require.NoError(t, err)

	// Backpatch the two offset fields now that string positions are known.
	_, err = f.Seek(entry1Pos+4, 0)
	require.NoError(t, err)
	require.NoError(t, w.WriteOffset(str1Pos))

	_, err = f.Seek(entry2Pos+4, 0)
	require.NoError(t, err)
	require.NoError(t, w.WriteOffset(str2Pos))
}

func TestReadTableResolvesEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loca.bin")
	writeLocaFixture(t, path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	table, err := ReadTable(f)
	require.NoError(t, err)

	name, ok := table.Lookup(100)
	require.True(t, ok)
	assert.Equal(t, "Rifle", name)

	name, ok = table.Lookup(200)
	require.True(t, ok)
	assert.Equal(t, "Shotgun", name)

	_, ok = table.Lookup(999)
	assert.False(t, ok)
}

func TestTableLookupOnNilTable(t *testing.T) {
	var table *Table
	_, ok := table.Lookup(1)
	assert.False(t, ok)
}
