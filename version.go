// Package resolve implements the version resolver for a dependency manager
// targeting a native ecosystem: given a root set of version-constrained
// dependencies and a Provider able to list versions and transitive
// dependencies, it produces one pinned version per reachable package, or a
// precise diagnostic when no such assignment exists.
package resolve

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver"
)

// Version is a parsed semantic version: major.minor.patch, plus ordered
// pre-release and build-metadata identifier lists. Build metadata never
// affects comparison or equality.
//
// The numeric core and pre-release precedence are delegated to
// github.com/Masterminds/semver, the same library the teacher reaches for
// whenever it needs to compare two semantic versions; the strict SemVer
// 2.0.0 grammar (no leading zeros, restricted identifier charset) is
// enforced by Parse before a canonical string ever reaches that library.
type Version struct {
	major, minor, patch uint64
	pre, build          []string
	sv                  *semver.Version
}

// Parse scans s for a MAJOR.MINOR[.PATCH][-PRE[.PRE...]][+META[.META...]]
// version, skipping a leading non-digit prefix such as "v" or "version-".
func Parse(s string) (Version, error) {
	i := 0
	for i < len(s) && (s[i] < '0' || s[i] > '9') {
		i++
	}
	if i == len(s) {
		return Version{}, &ScanError{Input: s, Reason: "no version digits found"}
	}
	body := s[i:]

	var build string
	hasBuild := false
	if idx := strings.IndexByte(body, '+'); idx >= 0 {
		build = body[idx+1:]
		body = body[:idx]
		hasBuild = true
	}

	var pre string
	hasPre := false
	if idx := strings.IndexByte(body, '-'); idx >= 0 {
		pre = body[idx+1:]
		body = body[:idx]
		hasPre = true
	}

	core := strings.Split(body, ".")
	if len(core) < 2 || len(core) > 3 {
		return Version{}, &ScanError{Input: s, Reason: "expected MAJOR.MINOR[.PATCH]"}
	}

	major, err := parseNumericComponent(core[0])
	if err != nil {
		return Version{}, &ScanError{Input: s, Reason: "major: " + err.Error()}
	}
	minor, err := parseNumericComponent(core[1])
	if err != nil {
		return Version{}, &ScanError{Input: s, Reason: "minor: " + err.Error()}
	}
	var patch uint64
	if len(core) == 3 {
		patch, err = parseNumericComponent(core[2])
		if err != nil {
			return Version{}, &ScanError{Input: s, Reason: "patch: " + err.Error()}
		}
	}

	var preIDs, buildIDs []string
	if hasPre {
		preIDs, err = splitPreReleaseIdentifiers(pre)
		if err != nil {
			return Version{}, &ScanError{Input: s, Reason: "pre-release: " + err.Error()}
		}
	}
	if hasBuild {
		buildIDs, err = splitBuildIdentifiers(build)
		if err != nil {
			return Version{}, &ScanError{Input: s, Reason: "build metadata: " + err.Error()}
		}
	}

	v := Version{major: major, minor: minor, patch: patch, pre: preIDs, build: buildIDs}
	canonical := v.canonicalString()
	sv, err := semver.NewVersion(canonical)
	if err != nil {
		// Unreachable if the strict validation above is correct: the
		// canonical string is always a subset of what the looser library
		// grammar accepts.
		return Version{}, &ScanError{Input: s, Reason: "internal: " + err.Error()}
	}
	v.sv = sv
	return v, nil
}

// MustParse is Parse, panicking on error. Intended for literal versions in
// tests and fixtures, never for untrusted input.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parseNumericComponent(s string) (uint64, error) {
	if s == "" {
		return 0, &ScanError{Input: s, Reason: "empty numeric component"}
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, &ScanError{Input: s, Reason: "leading zero in numeric component"}
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, &ScanError{Input: s, Reason: "non-digit in numeric component"}
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, &ScanError{Input: s, Reason: err.Error()}
	}
	return n, nil
}

func splitPreReleaseIdentifiers(raw string) ([]string, error) {
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if p == "" {
			return nil, &ScanError{Input: raw, Reason: "empty pre-release identifier"}
		}
		if !isAlnumHyphen(p) {
			return nil, &ScanError{Input: raw, Reason: "pre-release identifier has invalid characters: " + p}
		}
		if isAllDigits(p) && len(p) > 1 && p[0] == '0' {
			return nil, &ScanError{Input: raw, Reason: "numeric pre-release identifier has leading zero: " + p}
		}
	}
	return parts, nil
}

func splitBuildIdentifiers(raw string) ([]string, error) {
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if p == "" {
			return nil, &ScanError{Input: raw, Reason: "empty build identifier"}
		}
		if !isAlnumHyphen(p) {
			return nil, &ScanError{Input: raw, Reason: "build identifier has invalid characters: " + p}
		}
	}
	return parts, nil
}

func isAlnumHyphen(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return false
		}
	}
	return true
}

func isAllDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (v Version) canonicalString() string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(v.major, 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatUint(v.minor, 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatUint(v.patch, 10))
	if len(v.pre) > 0 {
		b.WriteByte('-')
		b.WriteString(strings.Join(v.pre, "."))
	}
	if len(v.build) > 0 {
		b.WriteByte('+')
		b.WriteString(strings.Join(v.build, "."))
	}
	return b.String()
}

// String renders the version, including pre-release and build metadata.
func (v Version) String() string {
	return v.canonicalString()
}

// Major, Minor, and Patch expose the numeric triple.
func (v Version) Major() uint64 { return v.major }
func (v Version) Minor() uint64 { return v.minor }
func (v Version) Patch() uint64 { return v.patch }

// PreReleaseIdentifiers returns the dot-separated pre-release identifiers,
// in order, or nil if this is not a pre-release version.
func (v Version) PreReleaseIdentifiers() []string { return v.pre }

// BuildMetadataIdentifiers returns the dot-separated build identifiers, in
// order, or nil if none are present. Build metadata never affects ordering.
func (v Version) BuildMetadataIdentifiers() []string { return v.build }

// IsPreRelease reports whether v carries any pre-release identifiers.
func (v Version) IsPreRelease() bool { return len(v.pre) > 0 }

// DiscardBuildMetadata returns a copy of v with its build metadata removed.
// It does not change ordering or equality, since build metadata never
// participated in either.
func (v Version) DiscardBuildMetadata() Version {
	if len(v.build) == 0 {
		return v
	}
	v.build = nil
	v.sv, _ = semver.NewVersion(v.canonicalString())
	return v
}

// sameNumericTriple reports whether a and b share major, minor, and patch.
func (v Version) sameNumericTriple(o Version) bool {
	return v.major == o.major && v.minor == o.minor && v.patch == o.patch
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than
// o, per SemVer 2.0.0: numeric triple first, then pre-release precedence
// (a pre-release always orders below its release), ignoring build
// metadata entirely.
func Compare(v, o Version) int {
	return v.sv.Compare(o.sv)
}

// Less reports whether v orders strictly before o.
func (v Version) Less(o Version) bool { return Compare(v, o) < 0 }

// Equal reports whether v and o are equal, ignoring build metadata.
func (v Version) Equal(o Version) bool { return Compare(v, o) == 0 }

// ScanError is returned by Parse when the input does not conform to the
// strict SemVer 2.0.0 grammar this resolver requires.
type ScanError struct {
	Input  string
	Reason string
}

func (e *ScanError) Error() string {
	return "invalid version " + strconv.Quote(e.Input) + ": " + e.Reason
}
