package manta

import (
	"encoding/base64"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// UserMetadataPrefix is the canonical header prefix of user metadata ("m-").
const UserMetadataPrefix = "M-"

// DecodeBlobMetadata builds blob metadata from response headers.
//
// container and name are the path arguments of the call that produced the
// response. ETag and Last-Modified use the first header value only; absent
// headers leave the fields empty. The URI is reqURL normalized with the same
// rule the signer applies.
func DecodeBlobMetadata(account, container, name string, reqURL *url.URL, header http.Header) (*BlobMetadata, error) {
	md := &BlobMetadata{
		Name:      name,
		Container: container,
		Kind:      KindBlob,
		ETag:      firstETag(header),
		Content: ContentMetadata{
			Type: header.Get("Content-Type"),
		},
	}

	if v := firstValue(header, "Last-Modified"); v != "" {
		t, err := http.ParseTime(v)
		if err != nil {
			return nil, &DecodeError{What: "Last-Modified header", Err: err}
		}
		md.LastModified = &t
	}

	if v := firstValue(header, "Content-Length"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, &DecodeError{What: "Content-Length header", Err: err}
		}
		md.Content.Length = &n
	}

	if v := firstValue(header, "Content-MD5"); v != "" {
		sum, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, &DecodeError{What: "Content-MD5 header", Err: err}
		}
		md.Content.MD5 = sum
	}

	for key, values := range header {
		if len(values) == 0 || !strings.HasPrefix(key, UserMetadataPrefix) {
			continue
		}
		if md.UserMetadata == nil {
			md.UserMetadata = make(map[string]string)
		}
		md.UserMetadata[strings.ToLower(strings.TrimPrefix(key, UserMetadataPrefix))] = values[0]
	}

	if reqURL != nil {
		uri, err := NormalizeURL(account, reqURL)
		if err != nil {
			return nil, &DecodeError{What: "request URL", Err: err}
		}
		md.URI = uri
	}

	return md, nil
}

// DecodeBlob builds a blob from a GET response. The payload is the response
// body, which the caller owns from then on, and every response header is
// copied verbatim.
func DecodeBlob(account, container, name string, resp *http.Response) (*Blob, error) {
	var reqURL *url.URL
	if resp.Request != nil {
		reqURL = resp.Request.URL
	}

	md, err := DecodeBlobMetadata(account, container, name, reqURL, resp.Header)
	if err != nil {
		return nil, err
	}
	if md.Content.Length == nil && resp.ContentLength >= 0 {
		n := resp.ContentLength
		md.Content.Length = &n
	}

	return &Blob{
		Metadata: *md,
		Payload:  resp.Body,
		Headers:  resp.Header.Clone(),
	}, nil
}

func firstValue(header http.Header, key string) string {
	values := header.Values(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func firstETag(header http.Header) string {
	return strings.Trim(firstValue(header, "ETag"), `"`)
}
