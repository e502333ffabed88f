package service

import "errors"

// Error taxonomy of the product pipelines. Handlers map these onto HTTP
// status codes; anything unrecognized becomes a generic 500.
var (
	// ErrInvalidPayload indicates a missing or malformed required field.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrNoFiles indicates a pure-creation call without any image file part.
	// Edit calls that retain existing images exclusively are exempt.
	ErrNoFiles = errors.New("no image files provided")

	// ErrEmptyPatch indicates a patch with no allow-listed field left after filtering.
	ErrEmptyPatch = errors.New("no valid fields to update")

	// ErrStorageWrite indicates a blob storage write failure. Sibling blobs
	// uploaded before the failure are not rolled back.
	ErrStorageWrite = errors.New("blob storage write failed")
)
