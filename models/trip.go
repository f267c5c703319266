package models

// TripPlace is one endpoint of a recorded trip. Label is a user-assigned
// name ("Home", "Office"), not the geocoded place name.
type TripPlace struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Label string  `json:"label"`
}

// Trip is one entry of the historical trip log. Date is YYYY-MM-DD so date
// windows compare lexically.
type Trip struct {
	Date            string    `json:"date"`
	Hour            int       `json:"hour"`
	Mode            string    `json:"mode"`
	DistanceKM      float64   `json:"distance_km"`
	DurationMinutes float64   `json:"duration_minutes"`
	Origin          TripPlace `json:"origin"`
	Destination     TripPlace `json:"destination"`
}
