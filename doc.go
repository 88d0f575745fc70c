// Package manta provides a client for Manta-style object storage services.
//
// The service authenticates every request with an RSA-SHA256 signature over
// the request's Date header and returns directory listings as newline
// delimited JSON objects. This package hides both quirks behind a generic
// blob store contract.
//
// # Key Components
//
//   - KeyLoader: lazily loads the account's RSA key pair from a KeySource
//   - Signer: adds Date and Authorization headers and the storage root path
//   - Transport: http.RoundTripper that signs every outgoing request
//   - Client: the REST surface (list, put, get, head, delete) with a fixed
//     not-found fallback per operation
//   - Store: the BlobStore adapter (containers, blobs, metadata, listing)
//   - Verifier: server-side verification of signed requests
//
// # Paths
//
// Every container and blob lives below /<account>/stor/. Callers address
// resources relative to that root; the signer and the response decoders
// splice the root into any path that lacks it using the same rule
// (NormalizeURL), so signed paths and returned URIs never disagree.
//
// # Example Usage
//
//	store, err := manta.NewStore(manta.Config{
//	    URL:     manta.DefaultURL,
//	    Account: "acct",
//	    Key:     keybackend.NewFileSource("~/.ssh/id_rsa"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if _, err := store.CreateContainer(ctx, "photos"); err != nil {
//	    log.Fatal(err)
//	}
//
//	etag, err := store.PutBlob(ctx, "photos",
//	    manta.NewBlob("cat.jpg", f).ContentType("image/jpeg").Build(),
//	    manta.PutOptions{})
//
// See the mantatest package for an in-process emulator suitable for tests.
package manta
