package fingerprint

import (
	"net/http"
	"strconv"
	"strings"
)

// Headers the portal page sets with values only the browser can observe.
const (
	HeaderScreenResolution = "X-Screen-Resolution"
	HeaderTimezoneOffset   = "X-Timezone-Offset"
	HeaderCanvasSignature  = "X-Canvas-Signature"
)

// FromRequest builds an Environment from request headers.
// Only the primary language tag of Accept-Language is used.
func FromRequest(r *http.Request) Environment {
	offset, _ := strconv.Atoi(strings.TrimSpace(r.Header.Get(HeaderTimezoneOffset)))
	return Environment{
		UserAgent:        r.UserAgent(),
		Language:         primaryLanguage(r.Header.Get("Accept-Language")),
		ScreenResolution: r.Header.Get(HeaderScreenResolution),
		TimezoneOffset:   offset,
		CanvasSignature:  r.Header.Get(HeaderCanvasSignature),
	}
}

func primaryLanguage(accept string) string {
	lang, _, _ := strings.Cut(accept, ",")
	lang, _, _ = strings.Cut(lang, ";")
	return strings.TrimSpace(lang)
}
