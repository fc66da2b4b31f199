package whatsapp

import (
	"net/url"
	"strings"
)

// FormatPhone strips everything but digits and prefixes bare 10-digit
// numbers with countryCode.
func FormatPhone(raw, countryCode string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 10 {
		return countryCode + digits
	}
	return digits
}

// ChatURL builds a click-to-chat link of the form {base}/send?phone=..&text=..
func ChatURL(base, phone, text string) string {
	return strings.TrimRight(base, "/") + "/send?phone=" + phone + "&text=" + encode(text)
}

// DirectURL builds a short link of the form {base}/{phone}?text=..
func DirectURL(base, phone, text string) string {
	u := strings.TrimRight(base, "/") + "/" + phone
	if text == "" {
		return u
	}
	return u + "?text=" + encode(text)
}

// encode escapes like encodeURIComponent: spaces become %20, not +.
func encode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
