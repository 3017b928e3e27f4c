package model

// 医疗机构类别
const (
	FacilityAll      = "all"
	FacilityHospital = "hospital"
	FacilityPharmacy = "pharmacy"
)

// Facility 是附近医疗机构查询的一条结果。
type Facility struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Address       string  `json:"address"`
	Phone         string  `json:"phone,omitempty"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	DistanceKm    float64 `json:"distance"`
	DirectionsURL string  `json:"directionsUrl"`
}
