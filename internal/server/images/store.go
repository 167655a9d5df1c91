// Package images persists generated dream images and turns stored references
// into URLs a browser can load.
package images

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// PlaceholderURL is shown when no image could be generated or stored.
const PlaceholderURL = "https://placehold.co/512x512/000000/bbff00?text=Image+Gen+Failed"

const pngDataURIPrefix = "data:image/png;base64,"

// Store saves PNG bytes and returns the reference kept in a message's
// image_data column. Resolve maps a reference back to a displayable URL.
type Store interface {
	Save(ctx context.Context, png []byte) (string, error)
	Resolve(ctx context.Context, ref string) (string, error)
}

// InlineStore embeds the image itself as a data URI.
type InlineStore struct{}

func (InlineStore) Save(_ context.Context, png []byte) (string, error) {
	if len(png) == 0 {
		return "", fmt.Errorf("empty image")
	}
	return pngDataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}

func (InlineStore) Resolve(_ context.Context, ref string) (string, error) {
	return ref, nil
}

// IsDataURI reports whether ref is an inline image.
func IsDataURI(ref string) bool {
	return strings.HasPrefix(ref, "data:image/")
}

// Kinds accepted by New.
const (
	KindInline = "inline"
	KindS3     = "s3"
)

// New returns the store named by kind.
func New(ctx context.Context, kind string, s3cfg S3Config) (Store, error) {
	switch kind {
	case KindInline, "":
		return InlineStore{}, nil
	case KindS3:
		return NewS3Store(ctx, s3cfg, nil)
	default:
		return nil, fmt.Errorf("unknown image store %q", kind)
	}
}
