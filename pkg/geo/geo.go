// Package geo 提供坐标距离计算与导航链接生成。
package geo

import (
	"math"
	"strconv"
)

const earthRadiusKm = 6371.0

// DistanceKm 使用 haversine 公式计算两点间的球面距离（千米）。
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Round1 保留一位小数。
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// DirectionsURL 返回到目标坐标的 Google Maps 导航链接。
func DirectionsURL(lat, lng float64) string {
	return "https://www.google.com/maps/dir/?api=1&destination=" +
		strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}

// Valid 判断坐标是否在合法范围内。
func Valid(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180 &&
		!math.IsNaN(lat) && !math.IsNaN(lng)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
