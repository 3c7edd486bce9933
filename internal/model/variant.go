package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnclassified is returned when a source name cannot be mapped to exactly one variant.
var ErrUnclassified = errors.New("source name does not identify a variant")

// Variant describes one of the two fixed firmware build configurations.
type Variant struct {
	Code        string // Single-letter code the shell profile dispatches on ("m" or "s")
	Name        string // Display name (e.g., MVCU)
	Key         string // Lowercase substring used to classify source names
	DirName     string // Directory under the project root (e.g., dev_kernel_mvcu)
	BuildScript string // Script in the build directory that performs the compile
}

var (
	MVCU = Variant{
		Code:        "m",
		Name:        "MVCU",
		Key:         "mvcu",
		DirName:     "dev_kernel_mvcu",
		BuildScript: "make_com.sh",
	}
	SVCU = Variant{
		Code:        "s",
		Name:        "SVCU",
		Key:         "svcu",
		DirName:     "dev_kernel_svcu",
		BuildScript: "make_voob.sh",
	}
)

// Variants is the complete, ordered set of variants.
var Variants = [2]Variant{MVCU, SVCU}

// VariantByCode looks a variant up by its single-letter code.
func VariantByCode(code string) (Variant, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, v := range Variants {
		if v.Code == code || v.Key == code {
			return v, true
		}
	}
	return Variant{}, false
}

// Classify maps a base name (without extension) to a variant by
// case-insensitive substring match. A name containing both keys is
// ambiguous and fails just like one containing neither.
func Classify(name string) (Variant, error) {
	lower := strings.ToLower(name)
	var matched []Variant
	for _, v := range Variants {
		if strings.Contains(lower, v.Key) {
			matched = append(matched, v)
		}
	}
	switch len(matched) {
	case 1:
		return matched[0], nil
	case 0:
		return Variant{}, fmt.Errorf("%w: %q contains neither %q nor %q", ErrUnclassified, name, MVCU.Key, SVCU.Key)
	default:
		return Variant{}, fmt.Errorf("%w: %q contains both %q and %q", ErrUnclassified, name, MVCU.Key, SVCU.Key)
	}
}
