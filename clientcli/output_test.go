package clientcli_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/manta/clientcli"
)

func TestNewFormatter(t *testing.T) {
	t.Run("json formatter", func(t *testing.T) {
		formatter := clientcli.NewFormatter(true, false)
		_, ok := formatter.(*clientcli.JSONFormatter)
		assert.True(t, ok)
	})

	t.Run("human formatter quiet", func(t *testing.T) {
		formatter := clientcli.NewFormatter(false, true)
		hf, ok := formatter.(*clientcli.HumanFormatter)
		require.True(t, ok)
		assert.True(t, hf.Quiet)
	})
}

func TestHumanFormatter_FormatUpload(t *testing.T) {
	results := []clientcli.UploadResult{
		{LocalPath: "local.txt", RemotePath: "c1/remote.txt", Size: 1024, ETag: "abc123"},
		{LocalPath: "bad.txt", Err: errors.New("denied")},
	}

	t.Run("verbose", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatUpload(&buf, results))

		output := buf.String()
		assert.Contains(t, output, "Uploaded: c1/remote.txt (1.0 KB)")
		assert.Contains(t, output, "ETag: abc123")
		assert.Contains(t, output, "Error: bad.txt - denied")
	})

	t.Run("quiet keeps errors only", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{Quiet: true}).FormatUpload(&buf, results))
		assert.Equal(t, "Error: bad.txt - denied\n", buf.String())
	})
}

func TestHumanFormatter_FormatDownload(t *testing.T) {
	var buf bytes.Buffer
	err := (&clientcli.HumanFormatter{}).FormatDownload(&buf, &clientcli.DownloadResult{
		RemotePath: "c1/remote.txt",
		LocalPath:  "local.txt",
		Size:       2048,
		ETag:       "etag123",
	})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Downloaded: c1/remote.txt -> local.txt (2.0 KB)")
	assert.Contains(t, output, "ETag: etag123")
}

func TestHumanFormatter_FormatList(t *testing.T) {
	t.Run("with items", func(t *testing.T) {
		mtime := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
		result := &clientcli.ListResult{
			Path: "c1",
			Items: []clientcli.EntryInfo{
				{Path: "c1/docs", Name: "docs", Type: clientcli.TypeDirectory, LastModified: &mtime},
				{Path: "c1/a.txt", Name: "a.txt", Type: clientcli.TypeObject, Size: 1024, LastModified: &mtime},
				{Path: "c1/b.txt", Name: "b.txt", Type: clientcli.TypeObject, Size: 2048},
			},
		}

		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatList(&buf, result))

		output := buf.String()
		assert.Contains(t, output, "PATH")
		assert.Contains(t, output, "MODIFIED")
		assert.Contains(t, output, "c1/docs/")
		assert.Contains(t, output, "c1/a.txt")
		assert.Contains(t, output, "2024-01-15 10:30:00")
		assert.Contains(t, output, "1 director(ies), 2 object(s) (3.0 KB total)")
	})

	t.Run("empty list", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatList(&buf, &clientcli.ListResult{}))
		assert.Contains(t, buf.String(), "No entries found")
	})
}

func TestHumanFormatter_FormatInfo(t *testing.T) {
	var buf bytes.Buffer
	err := (&clientcli.HumanFormatter{}).FormatInfo(&buf, &clientcli.InfoResult{
		Path:        "c1/a.txt",
		URI:         "http://localhost/alice/stor/c1/a.txt",
		ContentType: "text/plain",
		ETag:        "e1",
		MD5:         "md5==",
		Size:        5,
		Metadata:    map[string]string{"b": "2", "a": "1"},
	})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "URI:           http://localhost/alice/stor/c1/a.txt")
	assert.Contains(t, output, "Content-MD5:   md5==")
	assert.Contains(t, output, "Size:          5 B")
	assert.Contains(t, output, "m-a: 1\nm-b: 2\n")
}

func TestHumanFormatter_FormatProfiles(t *testing.T) {
	profiles := []clientcli.Profile{
		{Name: "local", URL: "http://localhost:5709", Account: "alice", KeyPath: "~/.ssh/id_rsa"},
		{Name: "prod", URL: "https://us-east.manta.joyent.com", Account: "bob"},
	}

	var buf bytes.Buffer
	require.NoError(t, (&clientcli.HumanFormatter{}).FormatProfileList(&buf, profiles, "prod"))
	output := buf.String()
	assert.Contains(t, output, "ACCOUNT")
	assert.Contains(t, output, "* prod")
	assert.Contains(t, output, "(not set)")

	buf.Reset()
	require.NoError(t, (&clientcli.HumanFormatter{}).FormatProfileShow(&buf, profiles[0], false))
	output = buf.String()
	assert.Contains(t, output, "Name:     local\n")
	assert.Contains(t, output, "Key Path: ~/.ssh/id_rsa")
	assert.Contains(t, output, "Key ID:   (not set)")
}

func TestJSONFormatter_FormatUpload(t *testing.T) {
	results := []clientcli.UploadResult{
		{
			LocalPath:   "local.txt",
			RemotePath:  "c1/remote.txt",
			ContentType: "text/plain",
			ETag:        "abc123",
			MD5:         "md5==",
			Size:        1024,
		},
		{LocalPath: "bad.txt", Err: errors.New("denied")},
	}

	var buf bytes.Buffer
	require.NoError(t, (&clientcli.JSONFormatter{}).FormatUpload(&buf, results))

	var output []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output))

	require.Len(t, output, 2)
	assert.Equal(t, "c1/remote.txt", output[0]["remote_path"])
	assert.Equal(t, "md5==", output[0]["content_md5"])
	assert.NotContains(t, output[0], "error")
	assert.Equal(t, "denied", output[1]["error"])
	assert.NotContains(t, output[1], "etag")
}

func TestJSONFormatter_FormatDelete(t *testing.T) {
	results := []clientcli.DeleteResult{
		{Path: "c1/file1.txt", Deleted: true},
		{Path: "c1", Err: errors.New("bad path")},
	}

	var buf bytes.Buffer
	require.NoError(t, (&clientcli.JSONFormatter{}).FormatDelete(&buf, results))

	var output map[string][]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output))

	require.Len(t, output["results"], 2)
	assert.Equal(t, true, output["results"][0]["deleted"])
	assert.Equal(t, false, output["results"][1]["deleted"])
	assert.Equal(t, "bad path", output["results"][1]["error"])
}

func TestJSONFormatter_FormatList(t *testing.T) {
	result := &clientcli.ListResult{
		Path:  "c1",
		Items: []clientcli.EntryInfo{{Path: "c1/a.txt", Name: "a.txt", Type: clientcli.TypeObject, Size: 3}},
	}

	var buf bytes.Buffer
	require.NoError(t, (&clientcli.JSONFormatter{}).FormatList(&buf, result))

	var output clientcli.ListResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output))
	assert.Equal(t, *result, output)
}

func TestJSONFormatter_FormatProfileShow(t *testing.T) {
	var buf bytes.Buffer
	err := (&clientcli.JSONFormatter{}).FormatProfileShow(&buf, clientcli.Profile{Name: "p", Account: "alice"}, true)
	require.NoError(t, err)

	var output map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output))
	assert.Equal(t, "alice", output["account"])
	assert.Equal(t, true, output["default"])
	assert.NotContains(t, output, "key_id")
}

func TestJSONFormatter_FormatError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&clientcli.JSONFormatter{}).FormatError(&buf, errors.New("test error")))

	var output map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output))
	assert.Equal(t, "test error", output["error"])
}
