package providers

// wmoDescriptions maps WMO weather interpretation codes to descriptions.
var wmoDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Drizzle: Light intensity",
	53: "Drizzle: Moderate intensity",
	55: "Drizzle: Dense intensity",
	56: "Freezing Drizzle: Light intensity",
	57: "Freezing Drizzle: Dense intensity",
	61: "Rainfall: Slight intensity",
	63: "Rainfall: Moderate intensity",
	65: "Rainfall: Heavy intensity",
	66: "Freezing Rainfall: Light intensity",
	67: "Freezing Rainfall: Heavy intensity",
	71: "Snow fall: Slight intensity",
	73: "Snow fall: Moderate intensity",
	75: "Snow fall: Heavy intensity",
	77: "Snow grains",
	80: "Rainfall showers: Slight",
	81: "Rainfall showers: Moderate",
	82: "Rainfall showers: Violent",
	85: "Snow showers: Slight",
	86: "Snow showers: Heavy",
	95: "Thunderstorm: Slight or moderate",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

func wmoDescription(code int) string {
	if desc, ok := wmoDescriptions[code]; ok {
		return desc
	}
	return "Unknown"
}

// wmoIconCode translates a WMO code into the OpenWeatherMap icon code family
// so both providers feed the same icon table.
func wmoIconCode(code int, isDay bool) string {
	var base string
	switch {
	case code == 0 || code == 1:
		base = "01"
	case code == 2:
		base = "02"
	case code == 3:
		base = "04"
	case code == 45 || code == 48:
		base = "50"
	case code >= 51 && code <= 57, code >= 80 && code <= 82:
		base = "09"
	case code >= 61 && code <= 67:
		base = "10"
	case code >= 71 && code <= 77, code == 85 || code == 86:
		base = "13"
	case code >= 95:
		base = "11"
	default:
		base = "03"
	}
	if isDay {
		return base + "d"
	}
	return base + "n"
}
