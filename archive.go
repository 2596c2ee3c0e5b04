package sealfile

import (
	"bytes"
	"io"
	"path"

	"github.com/klauspost/compress/zip"
)

// ArchiveCodec wraps a single named payload in a deflate-compressed zip
// archive so the original filename travels inside the ciphertext.
type ArchiveCodec struct {
	// AllowEmptyPayload makes Unpack accept an empty first entry
	AllowEmptyPayload bool
}

// Pack writes data as the only entry of a new archive. An empty name is
// replaced by DefaultEntryName.
func (c ArchiveCodec) Pack(name string, data []byte) ([]byte, error) {
	if name == "" {
		name = DefaultEntryName
	}

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   name,
		Method: zip.Deflate,
	})
	if err != nil {
		return nil, NewArchiveError(name, err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, NewArchiveError(name, err)
	}
	if err := zw.Close(); err != nil {
		return nil, NewArchiveError(name, err)
	}

	return buf.Bytes(), nil
}

// Unpack returns the name and contents of the first archive entry. Any
// further entries are ignored. The name is reduced to its last path element.
func (c ArchiveCodec) Unpack(blob []byte) (string, []byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return "", nil, &ArchiveError{Message: err.Error(), Err: ErrMalformedArchive}
	}
	if len(zr.File) == 0 {
		return "", nil, NewArchiveError("", ErrEmptyArchive)
	}

	first := zr.File[0]
	name := entryBaseName(first.Name)

	rc, err := first.Open()
	if err != nil {
		return "", nil, &ArchiveError{Entry: name, Message: err.Error(), Err: ErrMalformedArchive}
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", nil, &ArchiveError{Entry: name, Message: err.Error(), Err: ErrMalformedArchive}
	}

	if len(data) == 0 && !c.AllowEmptyPayload {
		return "", nil, NewArchiveError(name, ErrEmptyPayload)
	}

	return name, data, nil
}

// entryBaseName strips directories so a recovered name can be joined onto an
// output directory safely.
func entryBaseName(name string) string {
	base := path.Base(path.Clean("/" + name))
	if base == "/" || base == "." || base == ".." {
		return DefaultEntryName
	}
	return base
}
