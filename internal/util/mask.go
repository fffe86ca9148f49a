package util

import "strings"

// MaskSecret deja visibles sólo los extremos de un secreto (token, clave)
// para poder correlacionarlo en logs sin exponerlo.
func MaskSecret(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return ""
	case len(s) <= 12:
		return "***"
	default:
		return s[:4] + "…" + s[len(s)-4:]
	}
}
