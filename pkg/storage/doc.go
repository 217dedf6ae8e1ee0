// Package storage manages the image output directory.
//
// The Manager creates the directory idempotently and names files
// sequentially as <prefix>_NNNN.jpg, where NNNN is the zero-padded position
// of the image URL in the collected list. Writes go to a temporary file in
// the same directory and are renamed into place.
//
// Usage:
//
//	manager, err := storage.NewManager("data/raw", "image")
//	if err != nil {
//	    return err
//	}
//	path, n, err := manager.SaveImage(12, jpegReader) // data/raw/image_0012.jpg
package storage
