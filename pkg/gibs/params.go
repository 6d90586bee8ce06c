// Package gibs builds request URLs for the NASA GIBS imagery service.
//
// https://gibs.earthdata.nasa.gov/{service:wmts|wms|twms}/epsg{code:4326|3857|3413|3031}/{type:all|best|nrt|std}
package gibs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownProjection = errors.New("unknown projection")
	ErrUnknownService    = errors.New("unknown service")
	ErrUnknownImagery    = errors.New("unknown imagery tier")
)

// Projection is one of the coordinate reference systems GIBS serves.
// Only the package values below are valid, the zero value is not.
type Projection struct {
	code uint16
}

var (
	// WGS 84 / Geographic, WMTS version 1.0.0
	EPSG4326 = Projection{4326}
	// Web Mercator, WMTS version 1.0.0
	EPSG3857 = Projection{3857}
	// Arctic polar stereographic, WMTS version 1.0.0
	EPSG3413 = Projection{3413}
	// Antarctic polar stereographic, WMTS version 1.0.0
	EPSG3031 = Projection{3031}

	Geographic                  = EPSG4326
	WebMercator                 = EPSG3857
	ArcticPolarStereographic    = EPSG3413
	AntarcticPolarStereographic = EPSG3031
)

var projections = []Projection{EPSG4326, EPSG3857, EPSG3413, EPSG3031}

// NewProjection returns the projection for an EPSG code.
func NewProjection(code int) (Projection, error) {
	for _, p := range projections {
		if int(p.code) == code {
			return p, nil
		}
	}
	return Projection{}, fmt.Errorf("%w: epsg %d", ErrUnknownProjection, code)
}

// ParseProjection accepts "4326", "epsg4326" or "EPSG:4326".
func ParseProjection(s string) (Projection, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	t = strings.TrimPrefix(t, "epsg")
	t = strings.TrimPrefix(t, ":")
	code, err := strconv.Atoi(t)
	if err != nil {
		return Projection{}, fmt.Errorf("%w: %q", ErrUnknownProjection, s)
	}
	return NewProjection(code)
}

// Projections lists every supported projection.
func Projections() []Projection {
	out := make([]Projection, len(projections))
	copy(out, projections)
	return out
}

func (p Projection) Code() int {
	return int(p.code)
}

func (p Projection) Valid() bool {
	switch p {
	case EPSG4326, EPSG3857, EPSG3413, EPSG3031:
		return true
	}
	return false
}

// Token is the path segment used by the service, e.g. "epsg4326".
func (p Projection) Token() (string, bool) {
	if !p.Valid() {
		return "", false
	}
	return "epsg" + strconv.Itoa(int(p.code)), true
}

// Name of the coordinate reference system.
func (p Projection) Name() string {
	switch p {
	case EPSG4326:
		return "WGS 84 / Geographic"
	case EPSG3857:
		return "Web Mercator"
	case EPSG3413:
		return "Arctic Polar Stereographic"
	case EPSG3031:
		return "Antarctic Polar Stereographic"
	}
	return "unknown"
}

func (p Projection) String() string {
	return "EPSG:" + strconv.Itoa(int(p.code))
}

// Service is the transport style used to fetch imagery.
type Service int

const (
	TileService Service = iota + 1
	MapService
	TiledMapService
)

var services = []Service{TileService, MapService, TiledMapService}

// Services lists every service kind.
func Services() []Service {
	out := make([]Service, len(services))
	copy(out, services)
	return out
}

func ParseService(s string) (Service, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	for _, svc := range services {
		if tok, _ := svc.Token(); tok == t {
			return svc, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownService, s)
}

func (s Service) Token() (string, bool) {
	switch s {
	case TileService:
		return "wmts", true
	case MapService:
		return "wms", true
	case TiledMapService:
		return "twms", true
	}
	return "", false
}

func (s Service) Valid() bool {
	_, ok := s.Token()
	return ok
}

func (s Service) String() string {
	if t, ok := s.Token(); ok {
		return t
	}
	return "service(" + strconv.Itoa(int(s)) + ")"
}

// Imagery is the freshness class of the requested products.
//
//	all  - all Best Available, Standard and Near Real-Time products
//	best - the "Best Available" products
//	nrt  - Near Real-Time products only
//	std  - Standard products only
type Imagery int

const (
	All Imagery = iota + 1
	Best
	NearRealTime
	Standard
)

var tiers = []Imagery{All, Best, NearRealTime, Standard}

// Tiers lists every imagery tier.
func Tiers() []Imagery {
	out := make([]Imagery, len(tiers))
	copy(out, tiers)
	return out
}

func ParseImagery(s string) (Imagery, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	for _, im := range tiers {
		if tok, _ := im.Token(); tok == t {
			return im, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownImagery, s)
}

func (i Imagery) Token() (string, bool) {
	switch i {
	case All:
		return "all", true
	case Best:
		return "best", true
	case NearRealTime:
		return "nrt", true
	case Standard:
		return "std", true
	}
	return "", false
}

func (i Imagery) Valid() bool {
	_, ok := i.Token()
	return ok
}

func (i Imagery) String() string {
	if t, ok := i.Token(); ok {
		return t
	}
	return "imagery(" + strconv.Itoa(int(i)) + ")"
}
