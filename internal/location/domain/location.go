package domain

// Position one GPS sample
type Position struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// LocationReport one position sample sent to the geofence check
type LocationReport struct {
	MemberID  int64   `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// NewLocationReport bind a position to a member
func NewLocationReport(memberID int64, p Position) LocationReport {
	return LocationReport{MemberID: memberID, Latitude: p.Latitude, Longitude: p.Longitude, Altitude: p.Altitude}
}
