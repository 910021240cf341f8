package vox

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// nameFieldSize is the on-wire size of the name: 16 characters plus two zero separators.
const nameFieldSize = NameLength + 2

// Offsets of the zero separators inside the name field.
var nameSeparators = [2]int{7, 15}

// NormalizeName turns s into a name the amplifier can store: accents are stripped, other
// non-ASCII characters become '?', the result is cut to 16 characters and trailing spaces
// are removed.
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	var b strings.Builder
	n := 0
	for _, r := range s {
		if n == NameLength {
			break
		}
		if r > unicode.MaxASCII {
			r = '?'
		}
		b.WriteRune(r)
		n++
	}
	return strings.TrimRight(b.String(), " ")
}

// NameBytes returns the 16 space-padded ASCII characters sent for a name.
func NameBytes(name string) [NameLength]byte {
	var out [NameLength]byte
	name = NormalizeName(name)
	for i := range out {
		out[i] = ' '
		if i < len(name) {
			out[i] = name[i] & 0x7F
		}
	}
	return out
}

func encodeName(dst []byte, name string) {
	chars := NameBytes(name)
	j := 0
	for i := 0; i < nameFieldSize; i++ {
		if i == nameSeparators[0] || i == nameSeparators[1] {
			dst[i] = 0
			continue
		}
		dst[i] = chars[j]
		j++
	}
}

func decodeName(src []byte) string {
	chars := make([]byte, 0, NameLength)
	for i := 0; i < nameFieldSize; i++ {
		if i == nameSeparators[0] || i == nameSeparators[1] {
			continue
		}
		chars = append(chars, src[i]&0x7F)
	}
	return strings.TrimRight(string(chars), " ")
}
