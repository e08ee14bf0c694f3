// Package ports defines the interfaces the listings module consumes from
// infrastructure and from its AI agents.
package ports

import "context"

// PhotoObject is a stored photo fetched by handle.
type PhotoObject struct {
	Data        []byte
	ContentType string
}

// PhotoStore resolves opaque photo handles held on drafts.
type PhotoStore interface {
	// PhotoURL returns a short-lived URL the photo can be fetched from.
	PhotoURL(ctx context.Context, handle string) (string, error)
	// FetchPhoto downloads the photo together with its reported content type.
	FetchPhoto(ctx context.Context, handle string) (PhotoObject, error)
}

// DescriptionInput seeds listing description generation.
type DescriptionInput struct {
	Address   string
	City      string
	State     string
	Price     *float64
	Bedrooms  int
	Bathrooms int
	Features  []string
	Style     string
}

// DescriptionGenerator writes a natural-language listing description.
type DescriptionGenerator interface {
	GenerateDescription(ctx context.Context, input DescriptionInput) (string, error)
}
