package domain

import "context"

// Mailer delivers a password-reset ticket to a user's email address.
// Delivery is fire-and-forget: callers log failures but never surface them.
type Mailer interface {
	Deliver(ctx context.Context, email, ticket string) error
}

// ImageCropper fetches an image from a URL, crops it to the rectangle
// (x0, y0)-(x1, y1) with (0, 0) at the top left, stores the result and
// returns an opaque stored reference. Unresolvable URLs, unaccepted image
// types and out-of-bounds rectangles fail ErrInvalidInput.
type ImageCropper interface {
	FetchAndCrop(ctx context.Context, url string, x0, y0, x1, y1 int) (string, error)
}
