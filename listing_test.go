package manta_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sagarc03/manta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairListing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "two records",
			in:   `{"name":"a"}` + "\n" + `{"name":"b"}`,
			want: `[{"name":"a"},{"name":"b"}]`,
		},
		{
			name: "empty",
			in:   "",
			want: "[]",
		},
		{
			name: "single record with trailing newline",
			in:   `{"name":"a"}` + "\n",
			want: `[{"name":"a"}` + "\n]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, string(manta.RepairListing([]byte(tt.in))))
		})
	}
}

func TestDecodeListing(t *testing.T) {
	t.Parallel()

	body := `{"name":"photos","type":"directory","mtime":"2012-04-05T06:07:08.123Z"}
{"name":"k1","etag":"abc","size":2,"type":"object","mtime":"2012-04-05T06:07:09Z"}
`

	entries, err := manta.DecodeListing(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "photos", entries[0].Name)
	assert.Equal(t, manta.EntryTypeDirectory, entries[0].Type)
	assert.Nil(t, entries[0].Size)
	require.NotNil(t, entries[0].LastModified())
	assert.Equal(t, 123_000_000, entries[0].LastModified().Nanosecond())

	assert.Equal(t, "k1", entries[1].Name)
	assert.Equal(t, manta.EntryTypeObject, entries[1].Type)
	assert.Equal(t, "abc", entries[1].ETag)
	require.NotNil(t, entries[1].Size)
	assert.Equal(t, int64(2), *entries[1].Size)
}

func TestDecodeListing_Empty(t *testing.T) {
	t.Parallel()

	entries, err := manta.DecodeListing(strings.NewReader(""))
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestDecodeListing_Malformed(t *testing.T) {
	t.Parallel()

	_, err := manta.DecodeListing(strings.NewReader(`{"name":"a"} {"name":"b"}`))

	var decodeErr *manta.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "listing", decodeErr.What)
}

func TestEncodeListing_DecodesBack(t *testing.T) {
	t.Parallel()

	size := int64(5)
	entries := []manta.StorageEntry{
		{Name: "dir", Type: manta.EntryTypeDirectory, Mtime: "2012-04-05T06:07:08.5Z"},
		{Name: "line\n{break", Type: manta.EntryTypeObject, Mtime: "2012-04-05T06:07:08Z", ETag: "e", Size: &size},
	}

	var buf bytes.Buffer
	require.NoError(t, manta.EncodeListing(&buf, entries))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	got, err := manta.DecodeListing(&buf)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestStorageEntry_LastModified(t *testing.T) {
	t.Parallel()

	assert.Nil(t, manta.StorageEntry{}.LastModified())
	assert.Nil(t, manta.StorageEntry{Mtime: "yesterday"}.LastModified())

	got := manta.StorageEntry{Mtime: "2012-04-05T06:07:08Z"}.LastModified()
	require.NotNil(t, got)
	assert.Equal(t, 2012, got.Year())
}
