// Package zip bundles generated banners into a single downloadable archive.
package zip

import (
	"archive/zip"
	"bytes"
)

// Asset is one file to include in an archive.
type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// ArchiveAssets writes all assets into an in-memory zip, preserving the
// relative paths in Filename so aspect-ratio folders survive the download.
func ArchiveAssets(assets []Asset) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		w, err := zw.Create(asset.Filename)
		if err != nil {
			continue
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil
		}
	}
	_ = zw.Close()
	return buf.Bytes()
}
