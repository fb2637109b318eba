package render

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"strings"
	"unicode"
)

// siteInitials takes the first letter of up to two words of the site name.
func siteInitials(name string) string {
	var initials []rune
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				initials = append(initials, unicode.ToUpper(r))
			}
			break
		}
		if len(initials) == 2 {
			break
		}
	}
	if len(initials) == 0 {
		return "A"
	}
	return string(initials)
}

// verticalHue derives a stable hue from the vertical slug so every site in
// the same niche shares a color family.
func verticalHue(verticalSlug string) int {
	sum := md5.Sum([]byte(verticalSlug))
	return int(binary.BigEndian.Uint32(sum[:4]) % 360)
}

// faviconSVG renders the synthetic favicon: site initials on a
// vertical-colored tile. Deterministic for idempotent re-renders.
func faviconSVG(siteName, verticalSlug string) string {
	hue := verticalHue(verticalSlug)
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64">`+
		`<rect width="64" height="64" rx="12" fill="hsl(%d,55%%,45%%)"/>`+
		`<text x="32" y="42" font-family="Arial, sans-serif" font-size="28" font-weight="bold" fill="#fff" text-anchor="middle">%s</text>`+
		`</svg>`, hue, siteInitials(siteName))
}
