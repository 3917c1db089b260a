package ingest

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

func TestParseArchiveMemberName(t *testing.T) {
	intp := func(n int) *int { return &n }

	cases := []struct {
		name       string
		wantDoc    string
		wantAttach *int
		wantOK     bool
	}{
		{"1.pdf", "1", nil, true},
		{"42.pdf", "42", nil, true},
		{"3-main.pdf", "3", nil, true},
		{"3-1.pdf", "3", intp(1), true},
		{"10-25.pdf", "10", intp(25), true},
		{"notes.txt", "", nil, false},
		{"1.PDF", "", nil, false},
		{"-1.pdf", "", nil, false},
		{"1-.pdf", "", nil, false},
		{"1-extra.pdf", "", nil, false},
		{"a1.pdf", "", nil, false},
		{"1.pdf.exe", "", nil, false},
		{"", "", nil, false},
	}
	for _, tc := range cases {
		doc, attach, ok := ParseArchiveMemberName(tc.name)
		if ok != tc.wantOK {
			t.Fatalf("ParseArchiveMemberName(%q) ok = %v, want %v", tc.name, ok, tc.wantOK)
		}
		if doc != tc.wantDoc {
			t.Fatalf("ParseArchiveMemberName(%q) doc = %q, want %q", tc.name, doc, tc.wantDoc)
		}
		if (attach == nil) != (tc.wantAttach == nil) {
			t.Fatalf("ParseArchiveMemberName(%q) attach = %v, want %v", tc.name, attach, tc.wantAttach)
		}
		if attach != nil && *attach != *tc.wantAttach {
			t.Fatalf("ParseArchiveMemberName(%q) attach = %d, want %d", tc.name, *attach, *tc.wantAttach)
		}
	}
}

func TestDecodeText(t *testing.T) {
	got, err := DecodeText([]byte("SMITH v. JONES\n"))
	if err != nil {
		t.Fatalf("DecodeText valid utf-8: %v", err)
	}
	if got != "SMITH v. JONES\n" {
		t.Fatalf("DecodeText = %q", got)
	}

	_, err = DecodeText([]byte{0xff, 0xfe, 0xfd})
	if !errors.Is(err, ErrUndecodableText) {
		t.Fatalf("DecodeText invalid bytes: err = %v, want ErrUndecodableText", err)
	}
}

func buildArchive(t *testing.T, members map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// buildArchiveWithDeclaredSize writes a member whose directory entry declares
// the given uncompressed size without materializing the bytes.
func buildArchiveWithDeclaredSize(t *testing.T, name string, declared uint64) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.CreateRaw(&zip.FileHeader{
		Name:               name,
		Method:             zip.Store,
		UncompressedSize64: declared,
		CompressedSize64:   0,
	})
	if err != nil {
		t.Fatalf("zip create raw: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestOpenArchive(t *testing.T) {
	data := buildArchive(t, map[string][]byte{
		"1.pdf":   []byte("%PDF-1.4 one"),
		"2-1.pdf": []byte("%PDF-1.4 two"),
	})
	zr, err := OpenArchive(data)
	if err != nil {
		t.Fatalf("OpenArchive valid: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("OpenArchive members = %d, want 2", len(zr.File))
	}

	if _, err := OpenArchive([]byte("not a zip file")); err == nil {
		t.Fatalf("OpenArchive garbage: want error")
	}
}

func TestOpenArchiveSizeCeiling(t *testing.T) {
	atCeiling := buildArchiveWithDeclaredSize(t, "1.pdf", MaxArchiveMemberSize)
	if _, err := OpenArchive(atCeiling); !errors.Is(err, ErrOversizedMember) {
		t.Fatalf("declared size at ceiling: err = %v, want ErrOversizedMember", err)
	}

	underCeiling := buildArchiveWithDeclaredSize(t, "1.pdf", MaxArchiveMemberSize-1)
	if _, err := OpenArchive(underCeiling); err != nil {
		t.Fatalf("declared size one under ceiling: %v", err)
	}
}
