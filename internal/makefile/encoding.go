// Package makefile rewrites toolchain paths inside the variants' makefiles
// and checks that staged sources are referenced by them.
package makefile

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"vculaunch/internal/report"
)

// ErrUndecodable is returned when no candidate encoding can decode a file.
var ErrUndecodable = errors.New("cannot decode file with any supported encoding")

// Encoding is a named text codec.
type Encoding struct {
	Name   string
	Decode func([]byte) (string, error)
	Encode func(string) ([]byte, error)
}

var (
	UTF8 = Encoding{
		Name: "utf-8",
		Decode: func(b []byte) (string, error) {
			if !utf8.Valid(b) {
				return "", errors.New("invalid utf-8 sequence")
			}
			return string(b), nil
		},
		Encode: func(s string) ([]byte, error) { return []byte(s), nil },
	}
	Latin1    = charmapEncoding("latin-1", charmap.ISO8859_1)
	CP1252    = charmapEncoding("cp1252", charmap.Windows1252)
	ISO8859_1 = charmapEncoding("iso-8859-1", charmap.ISO8859_1)
)

// RewriteEncodings is the decode order used when rewriting makefiles.
//
// Latin-1 accepts any byte sequence, so the later entries are only reached
// if it is removed. A file in some other single-byte encoding is decoded
// as Latin-1 without error and round-trips unchanged except for the
// substituted lines.
var RewriteEncodings = []Encoding{UTF8, Latin1, CP1252, ISO8859_1}

// CheckEncodings is the decode order used by the module checker.
var CheckEncodings = []Encoding{UTF8, Latin1}

func charmapEncoding(name string, cm *charmap.Charmap) Encoding {
	return Encoding{
		Name: name,
		Decode: func(b []byte) (string, error) {
			out, err := cm.NewDecoder().Bytes(b)
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
		Encode: func(s string) ([]byte, error) {
			return cm.NewEncoder().Bytes([]byte(s))
		},
	}
}

// Document is a makefile's text tagged with the encoding that decoded it.
type Document struct {
	Path     string
	Text     string
	Encoding Encoding
}

// Read loads path and decodes it with the first encoding that succeeds.
func Read(path string, encodings []Encoding, log *report.Logger) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}

	for _, enc := range encodings {
		text, err := enc.Decode(data)
		if err != nil {
			log.Infof("Cannot read file with %s encoding, trying next...", enc.Name)
			continue
		}
		log.Infof("Successfully read file with %s encoding", enc.Name)
		return Document{Path: path, Text: text, Encoding: enc}, nil
	}

	return Document{}, fmt.Errorf("%w: %s", ErrUndecodable, path)
}

// Write encodes the document with its original encoding and saves it,
// keeping the file's permission bits.
func (d Document) Write() error {
	data, err := d.Encoding.Encode(d.Text)
	if err != nil {
		return fmt.Errorf("encode %s as %s: %w", d.Path, d.Encoding.Name, err)
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(d.Path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := os.WriteFile(d.Path, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", d.Path, err)
	}
	return nil
}
