package manta

import (
	"bytes"
	"io"
	"strings"
)

// BlobBuilder assembles a Blob for PutBlob.
//
//	blob := manta.NewBlob("notes/today.txt", strings.NewReader("hi")).
//		ContentType("text/plain").
//		ContentLength(2).
//		Build()
type BlobBuilder struct {
	blob Blob
}

// NewBlob starts a blob named name with the given payload. A payload that
// is not an io.ReadCloser is wrapped with io.NopCloser.
func NewBlob(name string, payload io.Reader) *BlobBuilder {
	b := &BlobBuilder{}
	b.blob.Metadata.Name = name
	b.blob.Metadata.Kind = KindBlob

	switch p := payload.(type) {
	case nil:
	case io.ReadCloser:
		b.blob.Payload = p
	default:
		b.blob.Payload = io.NopCloser(p)
	}

	if n, ok := knownLength(payload); ok {
		b.blob.Metadata.Content.Length = &n
	}
	return b
}

// ContentType sets the payload's media type.
func (b *BlobBuilder) ContentType(contentType string) *BlobBuilder {
	b.blob.Metadata.Content.Type = contentType
	return b
}

// ContentLength sets the payload length in bytes.
func (b *BlobBuilder) ContentLength(n int64) *BlobBuilder {
	b.blob.Metadata.Content.Length = &n
	return b
}

// ContentMD5 sets the raw MD5 digest the service checks the upload against.
func (b *BlobBuilder) ContentMD5(sum []byte) *BlobBuilder {
	b.blob.Metadata.Content.MD5 = sum
	return b
}

// UserMetadata adds a user metadata pair, sent as an "m-" header.
func (b *BlobBuilder) UserMetadata(key, value string) *BlobBuilder {
	if b.blob.Metadata.UserMetadata == nil {
		b.blob.Metadata.UserMetadata = make(map[string]string)
	}
	b.blob.Metadata.UserMetadata[strings.ToLower(key)] = value
	return b
}

// Build returns the blob.
func (b *BlobBuilder) Build() *Blob {
	blob := b.blob
	return &blob
}

func knownLength(r io.Reader) (int64, bool) {
	switch v := r.(type) {
	case *bytes.Buffer:
		return int64(v.Len()), true
	case *bytes.Reader:
		return int64(v.Len()), true
	case *strings.Reader:
		return int64(v.Len()), true
	}
	return 0, false
}
