package gibs

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/1F47E/go-gibsreel/pkg/frame"
)

const (
	Host      = "gibs.earthdata.nasa.gov"
	Extension = "sgi"
)

var ErrURLConstruction = errors.New("url construction failed")

// URLError reports a request URL that could not be composed.
type URLError struct {
	Service    Service
	Projection Projection
	Imagery    Imagery
	Raw        string
	Err        error
}

func (e *URLError) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("build gibs url %q: %v", e.Raw, e.Err)
	}
	return fmt.Sprintf("build gibs url (%s, %s, %s): %v", e.Service, e.Projection, e.Imagery, e.Err)
}

func (e *URLError) Unwrap() error {
	return e.Err
}

func (e *URLError) Is(target error) bool {
	return target == ErrURLConstruction
}

// URL is a composed request URL. Values built from equal inputs compare equal.
type URL struct {
	raw string
}

func (u URL) String() string {
	return u.raw
}

func (u URL) IsZero() bool {
	return u.raw == ""
}

func (u URL) Parsed() (*url.URL, error) {
	return url.Parse(u.raw)
}

// WithQuery returns a copy of u with q as its query string.
func (u URL) WithQuery(q url.Values) URL {
	raw := u.raw
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	if len(q) == 0 {
		return URL{raw}
	}
	return URL{raw + "?" + q.Encode()}
}

// Build composes
//
//	https://gibs.earthdata.nasa.gov/<service>/epsg<code>/<tier>/<service>.sgi
//
// The service token repeats as the file name; the remote layout expects it.
func Build(service Service, projection Projection, tier Imagery) (URL, error) {
	svc, ok := service.Token()
	if !ok {
		return URL{}, &URLError{Service: service, Projection: projection, Imagery: tier, Err: ErrUnknownService}
	}
	proj, ok := projection.Token()
	if !ok {
		return URL{}, &URLError{Service: service, Projection: projection, Imagery: tier, Err: ErrUnknownProjection}
	}
	im, ok := tier.Token()
	if !ok {
		return URL{}, &URLError{Service: service, Projection: projection, Imagery: tier, Err: ErrUnknownImagery}
	}

	raw := fmt.Sprintf("https://%s/%s/%s/%s/%s.%s", Host, svc, proj, im, svc, Extension)
	u, err := parse(raw)
	if err != nil {
		return URL{}, &URLError{Service: service, Projection: projection, Imagery: tier, Raw: raw, Err: err}
	}
	return u, nil
}

// MustBuild is Build for package level tables. It panics on error.
func MustBuild(service Service, projection Projection, tier Imagery) URL {
	u, err := Build(service, projection, tier)
	if err != nil {
		panic(err)
	}
	return u
}

func parse(raw string) (URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return URL{}, err
	}
	if u.Scheme != "https" || u.Host == "" {
		return URL{}, fmt.Errorf("not an absolute https url")
	}
	return URL{u.String()}, nil
}

// Endpoint is one point of the service/projection/tier space.
type Endpoint struct {
	Service    Service
	Projection Projection
	Imagery    Imagery
	URL        URL
}

// Endpoints returns every endpoint, services first, then projections, then tiers.
func Endpoints() ([]Endpoint, error) {
	out := make([]Endpoint, 0, len(services)*len(projections)*len(tiers))
	for _, s := range services {
		for _, p := range projections {
			for _, t := range tiers {
				u, err := Build(s, p, t)
				if err != nil {
					return nil, err
				}
				out = append(out, Endpoint{s, p, t, u})
			}
		}
	}
	return out, nil
}

// BBox is a bounding box in projection units: min x, min y, max x, max y.
type BBox [4]float64

func (b BBox) String() string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// GetMap describes a WMS/TWMS GetMap request, e.g.
//
//	twms.cgi?request=GetMap&layers=MODIS_Terra_CorrectedReflectance_TrueColor&srs=EPSG:4326
//	&format=image/jpeg&styles=&time=2012-07-09&width=512&height=512&bbox=-18,27,-13.5,31.5
type GetMap struct {
	Layer      string
	Projection Projection
	Format     frame.Format
	Time       time.Time
	Width      int
	Height     int
	BBox       BBox
}

// Query renders the request parameters.
func (g GetMap) Query() (url.Values, error) {
	if strings.TrimSpace(g.Layer) == "" {
		return nil, errors.New("getmap: layer is required")
	}
	if !g.Projection.Valid() {
		return nil, fmt.Errorf("getmap: %w", ErrUnknownProjection)
	}
	if g.Width <= 0 || g.Height <= 0 {
		return nil, fmt.Errorf("getmap: invalid size %dx%d", g.Width, g.Height)
	}
	if g.BBox[0] >= g.BBox[2] || g.BBox[1] >= g.BBox[3] {
		return nil, fmt.Errorf("getmap: empty bbox %s", g.BBox)
	}

	q := url.Values{}
	q.Set("request", "GetMap")
	q.Set("layers", g.Layer)
	q.Set("srs", g.Projection.String())
	q.Set("format", g.Format.MIME())
	q.Set("styles", "")
	if !g.Time.IsZero() {
		q.Set("time", g.Time.UTC().Format("2006-01-02"))
	}
	q.Set("width", strconv.Itoa(g.Width))
	q.Set("height", strconv.Itoa(g.Height))
	q.Set("bbox", g.BBox.String())
	return q, nil
}
