package snapshot

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
)

// WriteArchive packages a snapshot document into a zip container holding the
// state under {name}.molj, the shape downstream viewers accept as a scene
// file.
func WriteArchive(w io.Writer, name string, document []byte) error {
	zw := zip.NewWriter(w)

	f, err := zw.Create(name + ".molj")
	if err != nil {
		return fmt.Errorf("create archive entry for %q: %w", name, err)
	}
	if _, err := f.Write(document); err != nil {
		return fmt.Errorf("write archive entry for %q: %w", name, err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive for %q: %w", name, err)
	}
	return nil
}
