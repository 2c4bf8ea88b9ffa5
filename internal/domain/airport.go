package domain

// Airport is one row of the airports dataset.
type Airport struct {
	Name    string  `json:"Name"`
	City    string  `json:"City"`
	Country string  `json:"Country"`
	IATA    *string `json:"IATA_FAA"`
	ICAO    *string `json:"ICAO"`
}

// Code returns the IATA code, falling back to ICAO. Empty when neither is known.
func (a Airport) Code() string {
	if a.IATA != nil && *a.IATA != "" {
		return *a.IATA
	}
	if a.ICAO != nil && *a.ICAO != "" {
		return *a.ICAO
	}
	return ""
}

// AirportMatch is a scored resolver hit; Confidence is in (0,1].
type AirportMatch struct {
	Confidence float64 `json:"confidence"`
	Airport    Airport `json:"airport"`
}
