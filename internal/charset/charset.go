// Package charset converts UTF-8 feed text into the character set the
// schedule store displays.
package charset

import (
	"fmt"
	"os"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	// UTF8 leaves text unchanged.
	UTF8 = "utf-8"
	// ASCIITranslit transliterates to plain ASCII.
	ASCIITranslit = "us-ascii//translit"
	// Locale resolves the target from LC_ALL, LC_CTYPE or LANG.
	Locale = "locale"
)

// Converter renders UTF-8 text in a target character set. Runes the target
// cannot represent are replaced rather than failing the conversion.
type Converter struct {
	name    string
	convert func(string) string
}

// New returns a converter for the named target. Names are matched the way
// browsers match charset labels ("latin1", "iso-8859-15", "utf8"...).
func New(name string) (*Converter, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", UTF8, "utf8":
		return &Converter{name: UTF8, convert: identity}, nil
	case ASCIITranslit, "ascii//translit", "ascii", "us-ascii", "ansi_x3.4-1968":
		return &Converter{name: ASCIITranslit, convert: unidecode.Unidecode}, nil
	case Locale:
		return New(FromEnvironment())
	}

	enc, err := htmlindex.Get(key)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", name, err)
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = key
	}
	if canonical == UTF8 {
		return &Converter{name: UTF8, convert: identity}, nil
	}
	return &Converter{name: canonical, convert: encoderFunc(enc)}, nil
}

// Name returns the canonical target name.
func (c *Converter) Name() string {
	if c == nil {
		return UTF8
	}
	return c.name
}

// Convert renders s in the target character set.
func (c *Converter) Convert(s string) string {
	if c == nil || c.convert == nil || s == "" {
		return s
	}
	return c.convert(s)
}

// FromEnvironment derives the target from the locale variables, falling
// back to ASCII transliteration when no codeset is set.
func FromEnvironment() string {
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" {
			continue
		}
		if value == "C" || value == "POSIX" {
			return ASCIITranslit
		}
		_, codeset, ok := strings.Cut(value, ".")
		if !ok {
			continue
		}
		codeset, _, _ = strings.Cut(codeset, "@")
		if codeset != "" {
			return codeset
		}
	}
	return ASCIITranslit
}

func identity(s string) string { return s }

func encoderFunc(enc encoding.Encoding) func(string) string {
	return func(s string) string {
		out, err := encoding.ReplaceUnsupported(enc.NewEncoder()).String(s)
		if err != nil {
			return s
		}
		return out
	}
}
