package geo

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	ErrNoMatch         = errors.New("no coordinate pattern found")
	ErrMalformedNumber = errors.New("malformed number")
)

// space is any Unicode white space, not just RE2's ASCII \s.
const space = `[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]*`

// pointRe matches the first bracketed pair in a GeoJSON point, e.g. [lon, lat].
// Numbers may use any Unicode decimal digits.
var pointRe = regexp.MustCompile(space + `\[([-+\p{Nd}.]+),` + space + `([-+\p{Nd}.]+)\]`)

// Coordinates holds a position in GeoJSON order (longitude, latitude).
type Coordinates struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// CoordsToList returns the coordinates as [lon, lat].
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// ParseError is returned by ExtractCoordinates when the input holds no usable pair.
type ParseError struct {
	Input string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("parse coordinates from %q: %v %q", e.Input, e.Err, e.Value)
	}
	return fmt.Sprintf("parse coordinates from %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExtractCoordinates finds the first [number, number] pair in input and
// returns it as longitude and latitude. Values are not range checked.
func ExtractCoordinates(input string) (Coordinates, error) {
	match := pointRe.FindStringSubmatch(input)
	if match == nil {
		return Coordinates{}, &ParseError{Input: input, Err: ErrNoMatch}
	}

	lon, err := parseNumber(input, match[1])
	if err != nil {
		return Coordinates{}, err
	}
	lat, err := parseNumber(input, match[2])
	if err != nil {
		return Coordinates{}, err
	}
	return Coordinates{Lon: lon, Lat: lat}, nil
}

func parseNumber(input, s string) (float64, error) {
	v, err := strconv.ParseFloat(asciiDigits(s), 64)
	if err != nil {
		return 0, &ParseError{Input: input, Value: s, Err: ErrMalformedNumber}
	}
	return v, nil
}

// asciiDigits rewrites non-ASCII decimal digits as 0-9. Unicode encodes every
// decimal digit set as a contiguous run starting at zero, so a digit's value
// is its distance from the start of its run, modulo 10.
func asciiDigits(s string) string {
	if !strings.ContainsFunc(s, func(r rune) bool { return r > unicode.MaxASCII }) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII || !unicode.Is(unicode.Nd, r) {
			return r
		}
		zero := r
		for unicode.Is(unicode.Nd, zero-1) {
			zero--
		}
		return '0' + (r-zero)%10
	}, s)
}
