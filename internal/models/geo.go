package models

import "math"

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// geoCellDeg is the grid cell size of the spatial index. At 0.01° a cell is
// roughly 1.1 km tall, so proximity scans touch only a handful of cells.
const geoCellDeg = 0.01

type geoCell struct {
	lat int
	lon int
}

func cellFor(lat, lon float64) geoCell {
	return geoCell{
		lat: int(math.Floor(lat / geoCellDeg)),
		lon: int(math.Floor(lon / geoCellDeg)),
	}
}

// cellsInRadius returns every grid cell that can contain a point within
// radiusKm of the center. The lon span widens with latitude.
func cellsInRadius(lat, lon, radiusKm float64) []geoCell {
	latSpan := int(math.Ceil(radiusKm/111.0/geoCellDeg)) + 1
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lonSpan := int(math.Ceil(radiusKm/(111.0*cosLat)/geoCellDeg)) + 1

	center := cellFor(lat, lon)
	cells := make([]geoCell, 0, (2*latSpan+1)*(2*lonSpan+1))
	for dLat := -latSpan; dLat <= latSpan; dLat++ {
		for dLon := -lonSpan; dLon <= lonSpan; dLon++ {
			cells = append(cells, geoCell{lat: center.lat + dLat, lon: center.lon + dLon})
		}
	}
	return cells
}
