package ingest

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"
)

// MaxArchiveMemberSize is the decompression-bomb ceiling. A member declaring
// an uncompressed size at or above this is rejected before any extraction.
const MaxArchiveMemberSize = 200 << 20 // 200 MB

var (
	// ErrUndecodableText marks content that could not be decoded as UTF-8.
	// Retryable as a processing error; the upload itself may be fine.
	ErrUndecodableText = errors.New("content is not valid UTF-8")
	// ErrOversizedMember marks an archive rejected by the size ceiling.
	ErrOversizedMember = errors.New("archive member exceeds size ceiling")
)

// DecodeText decodes raw uploaded bytes as UTF-8 text.
func DecodeText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrUndecodableText
	}
	return string(data), nil
}

// Archive members are named <documentNumber>.pdf, <documentNumber>-main.pdf,
// or <documentNumber>-<attachmentNumber>.pdf.
var memberNamePattern = regexp.MustCompile(`^(\d+)(?:-(\d+|main))?\.pdf$`)

// ParseArchiveMemberName extracts the document and attachment numbers from an
// archive member name. A "-main" suffix is an alias for the main document
// (nil attachment number). ok is false for names outside the convention.
func ParseArchiveMemberName(name string) (documentNumber string, attachmentNumber *int, ok bool) {
	m := memberNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", nil, false
	}
	documentNumber = m[1]
	if m[2] == "" || m[2] == "main" {
		return documentNumber, nil, true
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", nil, false
	}
	return documentNumber, &n, true
}

// OpenArchive parses archive bytes and enforces the member size ceiling
// before any member's content is touched. On an oversized member it returns
// ErrOversizedMember and no reader; nothing is extracted.
func OpenArchive(data []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	for _, f := range zr.File {
		if f.UncompressedSize64 >= MaxArchiveMemberSize {
			return nil, fmt.Errorf("%w: %s declares %d bytes", ErrOversizedMember, f.Name, f.UncompressedSize64)
		}
	}
	return zr, nil
}
