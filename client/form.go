package client

import (
	"context"
	"encoding/base64"
	"io"

	"golang.org/x/sync/errgroup"
)

// NamedFile is a locally selected file before upload.
type NamedFile struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// PendingFile is a selected file waiting for upload, with its locally
// computed data-URL preview.
type PendingFile struct {
	Name    string
	Content []byte
	Preview string
}

// SaveFunc receives the assembled payload on submit; id is empty unless the
// form is editing an existing product.
type SaveFunc func(payload CreateProductPayload, id string) error

// FormState tracks the product form: existing (already uploaded) image URLs
// separately from newly selected files pending upload, with one unified
// preview list over both.
type FormState struct {
	Name        string
	Price       *float64
	Description string

	tags             []string
	currentImageURLs []string
	pending          []PendingFile
	editingID        string
}

// Reset returns the form to the idle empty state.
func (f *FormState) Reset() {
	*f = FormState{}
}

// LoadProduct populates the form from an existing product: its image URLs
// become the retained set and any pending files are discarded.
func (f *FormState) LoadProduct(p Product) {
	price := p.Price
	*f = FormState{
		Name:             p.Name,
		Price:            &price,
		Description:      p.Description,
		tags:             append([]string{}, p.Tags...),
		currentImageURLs: append([]string{}, p.ImageURL...),
		editingID:        p.ID,
	}
}

// Editing reports whether the form was populated from an existing product.
func (f *FormState) Editing() bool {
	return f.editingID != ""
}

// SetPrice sets the price field.
func (f *FormState) SetPrice(price float64) {
	f.Price = &price
}

// AddTag appends a tag unless it is empty or already present.
func (f *FormState) AddTag(tag string) {
	if tag == "" {
		return
	}
	for _, existing := range f.tags {
		if existing == tag {
			return
		}
	}
	f.tags = append(f.tags, tag)
}

// RemoveTag removes a tag if present.
func (f *FormState) RemoveTag(tag string) {
	for i, existing := range f.tags {
		if existing == tag {
			f.tags = append(f.tags[:i], f.tags[i+1:]...)
			return
		}
	}
}

// Tags returns a copy of the current tag list in insertion order.
func (f *FormState) Tags() []string {
	return append([]string{}, f.tags...)
}

// AddFiles reads all selected files concurrently, computes a data-URL
// preview per file and appends the whole batch atomically. One failed read
// rejects the entire batch: nothing is appended.
func (f *FormState) AddFiles(ctx context.Context, files []NamedFile) error {
	if len(files) == 0 {
		return nil
	}

	batch := make([]PendingFile, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			// A cancelled caller or a failed sibling stops queued reads
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := io.ReadAll(file.Reader)
			if err != nil {
				return err
			}
			batch[i] = PendingFile{
				Name:    file.Name,
				Content: content,
				Preview: dataURL(file.ContentType, content),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.pending = append(f.pending, batch...)
	return nil
}

func dataURL(contentType string, content []byte) string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(content)
}

// Previews returns the unified preview list: retained image URLs first, then
// the pending files' data URLs, in that order.
func (f *FormState) Previews() []string {
	previews := make([]string, 0, len(f.currentImageURLs)+len(f.pending))
	previews = append(previews, f.currentImageURLs...)
	for _, p := range f.pending {
		previews = append(previews, p.Preview)
	}
	return previews
}

// CurrentImageURLs returns a copy of the retained image URLs.
func (f *FormState) CurrentImageURLs() []string {
	return append([]string{}, f.currentImageURLs...)
}

// PendingFiles returns a copy of the files waiting for upload.
func (f *FormState) PendingFiles() []PendingFile {
	return append([]PendingFile{}, f.pending...)
}

// RemovePreviewAt removes the preview at the given display index, mapping it
// back into whichever sequence it belongs to: retained URLs first, then
// pending files. Out-of-range indexes are ignored.
func (f *FormState) RemovePreviewAt(i int) {
	if i < 0 {
		return
	}
	if i < len(f.currentImageURLs) {
		f.currentImageURLs = append(f.currentImageURLs[:i], f.currentImageURLs[i+1:]...)
		return
	}
	i -= len(f.currentImageURLs)
	if i < len(f.pending) {
		f.pending = append(f.pending[:i], f.pending[i+1:]...)
	}
}

// CanSubmit reports whether the required fields are filled in.
func (f *FormState) CanSubmit() bool {
	return f.Name != "" && f.Price != nil
}

// Submit assembles the payload and hands it to save, passing the target id
// only when editing. While name or price is missing the call is a no-op.
func (f *FormState) Submit(save SaveFunc) error {
	if !f.CanSubmit() {
		return nil
	}

	files := make([]FileUpload, 0, len(f.pending))
	for _, p := range f.pending {
		files = append(files, FileUpload{Name: p.Name, Content: p.Content})
	}

	payload := CreateProductPayload{
		Name:        f.Name,
		Price:       *f.Price,
		Description: f.Description,
		Tags:        f.Tags(),
		Files:       files,
	}
	if f.Editing() {
		payload.CurrentImageURLs = f.CurrentImageURLs()
	}
	return save(payload, f.editingID)
}
