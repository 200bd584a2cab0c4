package driven

import "context"

// ImageStore keeps a copy of each scanned image.
type ImageStore interface {
	// Save copies or downloads source and stores it under id.
	// It returns a reference usable for display and deletion.
	Save(ctx context.Context, id, source string) (string, error)

	// Delete removes a stored image. Unknown references are not an error.
	Delete(ctx context.Context, ref string) error
}
