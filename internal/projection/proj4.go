package projection

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// DefaultRadius is the sphere radius used when a definition gives none.
const DefaultRadius = orb.EarthRadius

const eps10 = 1e-10

// ErrOutOfRange is returned for latitudes beyond the poles and non-finite input.
var ErrOutOfRange = errors.New("coordinate out of range")

// DefinitionError reports an unusable projection definition.
type DefinitionError struct {
	Definition string
	Reason     string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("projection definition %q: %s", e.Definition, e.Reason)
}

// Params holds the parameters of a proj4 style definition. Angles are in
// degrees, distances in meters.
type Params struct {
	Proj    string
	Lat0    float64
	Lon0    float64
	Lat1    float64
	Lat2    float64
	LatTS   float64
	X0      float64
	Y0      float64
	R       float64
	ToMeter float64

	hasLat2  bool
	hasLatTS bool
}

// Proj4 is a spherical projection built from a proj4 style definition such as
//
//	+proj=lcc +lat_0=40 +lon_0=-97 +lat_1=33 +lat_2=45 +x_0=2412000 +y_0=1620000 +R=6370000 +to_meter=12000 +no_defs
//
// Supported projections are lcc, stere (polar aspects), merc and longlat.
// Outputs are in units of to_meter after applying the false easting and
// northing, as PROJ does with preserve_units.
type Proj4 struct {
	params     Params
	id         string
	geographic bool
	forward    func(lam, phi float64) (x, y float64)
}

// Parse builds a projection from a proj4 style definition.
func Parse(def string) (*Proj4, error) {
	params, err := parseParams(def)
	if err != nil {
		return nil, err
	}

	p := &Proj4{params: params, id: params.String()}
	switch params.Proj {
	case "lcc":
		p.forward, err = newLCC(params)
	case "stere":
		p.forward, err = newPolarStereographic(params)
	case "merc":
		p.forward = newMercator(params)
	case "longlat", "latlong", "lonlat":
		p.geographic = true
	default:
		err = fmt.Errorf("unsupported projection %q (supported: lcc, stere, merc, longlat)", params.Proj)
	}
	if err != nil {
		return nil, &DefinitionError{Definition: def, Reason: err.Error()}
	}
	return p, nil
}

// MustParse is Parse for definitions known to be valid.
func MustParse(def string) *Proj4 {
	p, err := Parse(def)
	if err != nil {
		panic(err)
	}
	return p
}

// ID returns the normalized definition.
func (p *Proj4) ID() string { return p.id }

// Forward implements Projection.
func (p *Proj4) Forward(lon, lat float64) (float64, float64, error) {
	if math.IsNaN(lon) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.Abs(lat) > 90+eps10 {
		return 0, 0, fmt.Errorf("%w: lon=%g lat=%g", ErrOutOfRange, lon, lat)
	}
	if p.geographic {
		return lon, lat, nil
	}

	phi := clampLat(lat) * math.Pi / 180
	lam := adjlon((lon - p.params.Lon0) * math.Pi / 180)
	x, y := p.forward(lam, phi)
	return (x + p.params.X0) / p.params.ToMeter, (y + p.params.Y0) / p.params.ToMeter, nil
}

func newLCC(p Params) (func(lam, phi float64) (float64, float64), error) {
	phi0 := p.Lat0 * math.Pi / 180
	phi1 := p.Lat1 * math.Pi / 180
	phi2 := phi1
	if p.hasLat2 {
		phi2 = p.Lat2 * math.Pi / 180
	}
	if math.Abs(phi1+phi2) < eps10 {
		return nil, errors.New("lat_1 and lat_2 must not be symmetric about the equator")
	}

	cos1 := math.Cos(phi1)
	n := math.Sin(phi1)
	if math.Abs(phi1-phi2) >= eps10 {
		n = math.Log(cos1/math.Cos(phi2)) /
			math.Log(math.Tan(math.Pi/4+phi2/2)/math.Tan(math.Pi/4+phi1/2))
	}
	c := cos1 * math.Pow(math.Tan(math.Pi/4+phi1/2), n) / n
	rho0 := rhoLCC(p.R, c, n, phi0)

	return func(lam, phi float64) (float64, float64) {
		rho := rhoLCC(p.R, c, n, phi)
		theta := n * lam
		return rho * math.Sin(theta), rho0 - rho*math.Cos(theta)
	}, nil
}

// rhoLCC is the cone radius at latitude phi. At the pole opposite the cone
// apex it is infinite.
func rhoLCC(r, c, n, phi float64) float64 {
	if math.Abs(math.Abs(phi)-math.Pi/2) < eps10 {
		if phi*n > 0 {
			return 0
		}
		return math.Inf(1)
	}
	return r * c / math.Pow(math.Tan(math.Pi/4+phi/2), n)
}

func newPolarStereographic(p Params) (func(lam, phi float64) (float64, float64), error) {
	if math.Abs(math.Abs(p.Lat0)-90) > eps10 {
		return nil, errors.New("only polar stereographic (lat_0=90 or lat_0=-90) is supported")
	}
	north := p.Lat0 > 0

	phits := math.Pi / 2
	if p.hasLatTS {
		phits = math.Abs(p.LatTS) * math.Pi / 180
	}
	// akm1 = cos(phits) / tan(pi/4 - phits/2) = 1 + sin(phits) on the sphere.
	akm1 := p.R * (1 + math.Sin(phits))

	return func(lam, phi float64) (float64, float64) {
		if north {
			rho := akm1 * math.Tan(math.Pi/4-phi/2)
			return rho * math.Sin(lam), -rho * math.Cos(lam)
		}
		rho := akm1 * math.Tan(math.Pi/4+phi/2)
		return rho * math.Sin(lam), rho * math.Cos(lam)
	}, nil
}

func newMercator(p Params) func(lam, phi float64) (float64, float64) {
	scale := p.R / orb.EarthRadius
	return func(lam, phi float64) (float64, float64) {
		q := project.WGS84.ToMercator(orb.Point{lam * 180 / math.Pi, phi * 180 / math.Pi})
		return q[0] * scale, q[1] * scale
	}
}

// adjlon wraps a longitude difference in radians into [-pi, pi].
func adjlon(lam float64) float64 {
	if math.Abs(lam) <= math.Pi {
		return lam
	}
	lam = math.Mod(lam+math.Pi, 2*math.Pi)
	if lam < 0 {
		lam += 2 * math.Pi
	}
	return lam - math.Pi
}

func clampLat(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

func parseParams(def string) (Params, error) {
	p := Params{ToMeter: 1}
	seen := make(map[string]bool)

	for _, token := range strings.Fields(def) {
		if !strings.HasPrefix(token, "+") {
			return p, &DefinitionError{Definition: def, Reason: fmt.Sprintf("token %q does not start with +", token)}
		}
		key, value, hasValue := strings.Cut(token[1:], "=")
		if seen[key] {
			return p, &DefinitionError{Definition: def, Reason: fmt.Sprintf("duplicate parameter %q", key)}
		}
		seen[key] = true

		switch key {
		case "no_defs", "wktext", "type":
			continue
		case "proj":
			p.Proj = value
			continue
		case "units":
			if value != "m" {
				return p, &DefinitionError{Definition: def, Reason: fmt.Sprintf("unsupported units %q", value)}
			}
			continue
		}

		target := map[string]*float64{
			"lat_0":    &p.Lat0,
			"lon_0":    &p.Lon0,
			"lat_1":    &p.Lat1,
			"lat_2":    &p.Lat2,
			"lat_ts":   &p.LatTS,
			"x_0":      &p.X0,
			"y_0":      &p.Y0,
			"R":        &p.R,
			"a":        &p.R,
			"to_meter": &p.ToMeter,
		}[key]
		if target == nil {
			return p, &DefinitionError{Definition: def, Reason: fmt.Sprintf("unsupported parameter %q", key)}
		}
		if !hasValue {
			return p, &DefinitionError{Definition: def, Reason: fmt.Sprintf("parameter %q needs a value", key)}
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return p, &DefinitionError{Definition: def, Reason: fmt.Sprintf("parameter %q: invalid number %q", key, value)}
		}
		*target = v
	}

	if p.Proj == "" {
		return p, &DefinitionError{Definition: def, Reason: "missing +proj"}
	}
	if seen["R"] && seen["a"] {
		return p, &DefinitionError{Definition: def, Reason: "both +R and +a given"}
	}
	if p.R == 0 {
		p.R = DefaultRadius
	}
	if p.R < 0 {
		return p, &DefinitionError{Definition: def, Reason: "radius must be positive"}
	}
	if p.ToMeter <= 0 {
		return p, &DefinitionError{Definition: def, Reason: "to_meter must be positive"}
	}
	if !seen["lat_1"] {
		p.Lat1 = p.Lat0
	}
	p.hasLat2 = seen["lat_2"]
	p.hasLatTS = seen["lat_ts"]
	return p, nil
}

// String renders the parameters as a normalized definition: fixed key order,
// shortest float formatting, defaults spelled out.
func (p Params) String() string {
	values := map[string]float64{
		"lat_0":    p.Lat0,
		"lon_0":    p.Lon0,
		"lat_1":    p.Lat1,
		"x_0":      p.X0,
		"y_0":      p.Y0,
		"R":        p.R,
		"to_meter": p.ToMeter,
	}
	if p.hasLat2 {
		values["lat_2"] = p.Lat2
	}
	if p.hasLatTS {
		values["lat_ts"] = p.LatTS
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("+proj=")
	b.WriteString(p.Proj)
	for _, k := range keys {
		b.WriteString(" +")
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(values[k], 'g', -1, 64))
	}
	return b.String()
}
