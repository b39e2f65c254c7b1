package shipping

import "strings"

// countryCodes maps common Spanish and English country names to ISO 3166-1
// alpha-2 codes. The list covers the markets the bot ships between; anything
// else falls through to raw-name comparison in the estimator.
var countryCodes = map[string]string{
	"españa":         "ES",
	"espana":         "ES",
	"spain":          "ES",
	"portugal":       "PT",
	"francia":        "FR",
	"france":         "FR",
	"italia":         "IT",
	"italy":          "IT",
	"alemania":       "DE",
	"germany":        "DE",
	"reino unido":    "GB",
	"united kingdom": "GB",
	"inglaterra":     "GB",
	"irlanda":        "IE",
	"ireland":        "IE",
	"paises bajos":   "NL",
	"países bajos":   "NL",
	"holanda":        "NL",
	"netherlands":    "NL",
	"belgica":        "BE",
	"bélgica":        "BE",
	"belgium":        "BE",
	"suiza":          "CH",
	"switzerland":    "CH",
	"austria":        "AT",
	"polonia":        "PL",
	"poland":         "PL",
	"grecia":         "GR",
	"greece":         "GR",
	"suecia":         "SE",
	"sweden":         "SE",
	"noruega":        "NO",
	"norway":         "NO",
	"dinamarca":      "DK",
	"denmark":        "DK",
	"finlandia":      "FI",
	"finland":        "FI",
	"rumania":        "RO",
	"rumanía":        "RO",
	"romania":        "RO",
	"andorra":        "AD",
	"marruecos":      "MA",
	"morocco":        "MA",
	"mexico":         "MX",
	"méxico":         "MX",
	"argentina":      "AR",
	"colombia":       "CO",
	"chile":          "CL",
	"peru":           "PE",
	"perú":           "PE",
	"ecuador":        "EC",
	"venezuela":      "VE",
	"uruguay":        "UY",
	"paraguay":       "PY",
	"bolivia":        "BO",
	"brasil":         "BR",
	"brazil":         "BR",
	"estados unidos": "US",
	"united states":  "US",
	"usa":            "US",
	"canada":         "CA",
	"canadá":         "CA",
	"china":          "CN",
	"japon":          "JP",
	"japón":          "JP",
	"japan":          "JP",
}

// CountryCode resolves a country name to its ISO2 code. Inputs that already
// look like a code (two letters) pass through uppercased. Unknown names
// return "" so callers can fall back to comparing raw names.
func CountryCode(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) == 2 && isAlpha(trimmed) {
		return strings.ToUpper(trimmed)
	}
	return countryCodes[strings.ToLower(trimmed)]
}

// SameCountry reports whether two country names resolve to the same place.
// When either side is unrecognized it falls back to a case-insensitive
// comparison of the raw names.
func SameCountry(a, b string) bool {
	ca, cb := CountryCode(a), CountryCode(b)
	if ca != "" && cb != "" {
		return ca == cb
	}
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
