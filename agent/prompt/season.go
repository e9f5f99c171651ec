package prompt

var northernSeasons = [...]string{
	"winter", "winter", "spring", "spring", "spring", "summer",
	"summer", "summer", "autumn", "autumn", "autumn", "winter",
}

var opposite = map[string]string{
	"winter": "summer",
	"summer": "winter",
	"spring": "autumn",
	"autumn": "spring",
}

// Season names the meteorological season of month. A negative latitude flips
// it to the southern hemisphere; unknown latitude is treated as northern.
func Season(month int, lat *float64) string {
	if month < 1 || month > 12 {
		return ""
	}
	s := northernSeasons[month-1]
	if lat != nil && *lat < 0 {
		return opposite[s]
	}
	return s
}
