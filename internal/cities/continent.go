package cities

import "strings"

// continentFor maps a country name to its continent. Countries outside the
// supported set fall back to an empty string rather than guessing.
func continentFor(country string) string {
	switch strings.ToLower(strings.TrimSpace(country)) {
	case "usa", "united states", "us", "canada", "mexico":
		return "North America"
	case "argentina", "brazil", "colombia", "chile", "peru", "uruguay":
		return "South America"
	case "uk", "united kingdom", "england", "scotland", "ireland",
		"france", "germany", "italy", "spain", "portugal", "netherlands",
		"belgium", "austria", "switzerland", "czech republic", "poland",
		"hungary", "greece", "denmark", "sweden", "norway", "finland":
		return "Europe"
	case "japan", "singapore", "thailand", "vietnam", "south korea",
		"india", "indonesia", "malaysia", "philippines", "taiwan",
		"uae", "united arab emirates", "israel", "turkey":
		return "Asia"
	case "australia", "new zealand":
		return "Oceania"
	case "south africa", "morocco", "egypt", "kenya", "nigeria":
		return "Africa"
	default:
		return ""
	}
}
