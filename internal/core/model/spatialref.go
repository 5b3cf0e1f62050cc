package model

import (
	"regexp"
	"strconv"
	"strings"
)

// SpatialRef is a spatial reference as it travels on the wire. A nonzero WKID
// wins over the textual forms; WKT wins over Proj4.
type SpatialRef struct {
	WKID  int    `json:"wkid,omitempty"`
	WKT   string `json:"wkt,omitempty"`
	Proj4 string `json:"proj4,omitempty"`
}

var initAlias = regexp.MustCompile(`^\+init=epsg:(\d+)$`)

// Canonical returns the reference with one form set, or nil when none of the
// forms declares a reference. "+init=epsg:N" is folded into WKID N.
func (s *SpatialRef) Canonical() *SpatialRef {
	if s == nil {
		return nil
	}
	if s.WKID != 0 {
		return &SpatialRef{WKID: s.WKID}
	}
	if w := strings.TrimSpace(s.WKT); w != "" {
		return &SpatialRef{WKT: w}
	}
	p := strings.Join(strings.Fields(s.Proj4), " ")
	if p == "" {
		return nil
	}
	if m := initAlias.FindStringSubmatch(strings.ToLower(p)); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n != 0 {
			return &SpatialRef{WKID: n}
		}
	}
	return &SpatialRef{Proj4: p}
}

// Key identifies the canonical reference; two references are the same frame
// iff their keys match. The empty key means "no reference".
func (s *SpatialRef) Key() string {
	c := s.Canonical()
	switch {
	case c == nil:
		return ""
	case c.WKID != 0:
		return "wkid:" + strconv.Itoa(c.WKID)
	case c.WKT != "":
		return "wkt:" + c.WKT
	default:
		return "proj4:" + c.Proj4
	}
}

func (s *SpatialRef) String() string {
	if k := s.Key(); k != "" {
		return k
	}
	return "none"
}

// SameRef reports whether a and b name the same frame. Two absent references
// are the same.
func SameRef(a, b *SpatialRef) bool { return a.Key() == b.Key() }
