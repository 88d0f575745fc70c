package manta

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

var (
	recordBoundary = []byte("\n{")
	recordJoin     = []byte(",{")
)

// RepairListing turns the service's listing body (one JSON object per line,
// no brackets, no commas) into a JSON array. Every newline directly followed
// by "{" becomes ",{" and the result is wrapped in brackets.
//
// Records are assumed not to contain a literal newline followed by "{"
// inside a string value.
func RepairListing(body []byte) []byte {
	repaired := bytes.ReplaceAll(body, recordBoundary, recordJoin)

	out := make([]byte, 0, len(repaired)+2)
	out = append(out, '[')
	out = append(out, repaired...)
	out = append(out, ']')
	return out
}

// DecodeListing reads a listing body and returns its entries in the order
// the service sent them. An empty body yields no entries. Malformed input
// returns a *DecodeError.
func DecodeListing(r io.Reader) ([]StorageEntry, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read listing: %w", err)
	}

	entries := []StorageEntry{}
	if err := json.Unmarshal(RepairListing(body), &entries); err != nil {
		return nil, &DecodeError{What: "listing", Err: err}
	}
	return entries, nil
}

// EncodeListing writes entries in the service's listing format.
func EncodeListing(w io.Writer, entries []StorageEntry) error {
	enc := json.NewEncoder(w)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encode listing: %w", err)
		}
	}
	return nil
}
