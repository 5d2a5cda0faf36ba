// Package storage resolves heterogeneous storage URIs to concrete transfer
// methods: direct HTTP fetch, credentialed S3-compatible GET/PUT,
// public-base-URL fallback, or presigned URL.
package storage

import (
	"fmt"
	"net/url"
	"strings"

	"clipforge/fault"
)

// LocatorKind tags the variant a URI parsed into. The set is closed;
// downstream switches cover every kind.
type LocatorKind int

const (
	KindHTTP LocatorKind = iota
	KindObjectStore
	KindPresigned
)

// Locator is a resolved reference to a byte stream. Exactly one variant
// matches a given URI, determined by a fixed precedence: a presigned URL
// field wins outright, then s3://|gs://, then http(s)://.
type Locator struct {
	Kind   LocatorKind
	URL    string // KindHTTP and KindPresigned
	Bucket string // KindObjectStore
	Key    string // KindObjectStore
}

func (l Locator) String() string {
	switch l.Kind {
	case KindObjectStore:
		return fmt.Sprintf("s3://%s/%s", l.Bucket, l.Key)
	default:
		return l.URL
	}
}

// Filename returns the last path element, used to pick temp file names and
// preserve extensions.
func (l Locator) Filename() string {
	var p string
	switch l.Kind {
	case KindObjectStore:
		p = l.Key
	default:
		if u, err := url.Parse(l.URL); err == nil {
			p = u.Path
		}
	}
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	return p
}

// Presigned wraps an already-signed URL as a locator. No classification or
// credential lookup happens for these.
func Presigned(rawURL string) Locator {
	return Locator{Kind: KindPresigned, URL: rawURL}
}

// ObjectRef builds an object-store locator directly from bucket and key.
func ObjectRef(bucket, key string) Locator {
	return Locator{Kind: KindObjectStore, Bucket: bucket, Key: key}
}

// ParseLocator classifies a URI string. Classification is total: every
// syntactically valid URI maps to exactly one variant or an
// UNRESOLVABLE_URI fault.
func ParseLocator(uri string) (Locator, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Locator{}, fault.New(fault.UnresolvableURI, "empty URI")
	}

	switch {
	case strings.HasPrefix(uri, "s3://"), strings.HasPrefix(uri, "gs://"):
		rest := uri[len("s3://"):]
		bucket, key, found := strings.Cut(rest, "/")
		if bucket == "" {
			return Locator{}, fault.Newf(fault.UnresolvableURI, "missing bucket in %q", uri)
		}
		if !found || key == "" {
			// Rejected before any network call.
			return Locator{}, fault.Newf(fault.UnresolvableURI, "empty object key in %q", uri)
		}
		return Locator{Kind: KindObjectStore, Bucket: bucket, Key: key}, nil

	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		if _, err := url.Parse(uri); err != nil {
			return Locator{}, fault.Wrap(err, fault.UnresolvableURI, "malformed http URI")
		}
		return Locator{Kind: KindHTTP, URL: uri}, nil

	default:
		return Locator{}, fault.Newf(fault.UnresolvableURI, "unrecognized scheme in %q", uri)
	}
}

// LegacyObjectRef normalizes the legacy parameter shape
// (bucket + bucket_parent_folder + name) into an object-store locator
// before classification.
func LegacyObjectRef(bucket, parentFolder, id, name string) (Locator, error) {
	if bucket == "" || parentFolder == "" || id == "" || name == "" {
		return Locator{}, fault.New(fault.InvalidParameters,
			"legacy locator requires bucket, bucket_parent_folder, id and a file name")
	}
	return ObjectRef(bucket, fmt.Sprintf("%s/%s/%s", parentFolder, id, name)), nil
}
