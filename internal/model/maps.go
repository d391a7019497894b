package model

// mapNames maps decoder map ids onto display names.
var mapNames = map[string]string{
	"407193663917": "Clubhouse",
	"378595635123": "Nighthaven Labs",
	"276279025182": "Skyscraper",
	"379218689149": "Consulate",
	"388073319671": "Lair",
}

// MapName returns the display name for a map id, or "Unknown Map".
func MapName(id string) string {
	if name, ok := mapNames[id]; ok {
		return name
	}
	return "Unknown Map"
}
