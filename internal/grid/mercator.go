package grid

import "math"

// WGS 84 ellipsoid.
const (
	semiMajor     = 6378137.0
	flattening    = 1 / 298.257223563
	pdcCentralLon = 150.0
)

var eccentricity = math.Sqrt(flattening * (2 - flattening))

// ToLonLat converts EPSG:3832 metres to WGS 84 degrees.
func ToLonLat(x, y float64) (float64, float64) {
	lon := pdcCentralLon + x/semiMajor*180/math.Pi
	lon = math.Mod(lon+540, 360) - 180

	t := math.Exp(-y / semiMajor)
	phi := math.Pi/2 - 2*math.Atan(t)
	for i := 0; i < 15; i++ {
		es := eccentricity * math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-es)/(1+es), eccentricity/2))
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}
	return lon, phi * 180 / math.Pi
}

// FromLonLat converts WGS 84 degrees to EPSG:3832 metres.
func FromLonLat(lon, lat float64) (float64, float64) {
	dLon := math.Mod(lon-pdcCentralLon+540, 360) - 180
	x := semiMajor * dLon * math.Pi / 180

	phi := lat * math.Pi / 180
	es := eccentricity * math.Sin(phi)
	y := semiMajor * math.Log(math.Tan(math.Pi/4+phi/2)*math.Pow((1-es)/(1+es), eccentricity/2))
	return x, y
}
