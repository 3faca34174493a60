package utils

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone formats a raw phone string to E.164 on a best-effort
// basis. Numbers that fail to parse come back as their bare digits; the
// funnel never rejects a lead over formatting.
func NormalizePhone(raw, defaultRegion string) string {
	if defaultRegion == "" {
		defaultRegion = "BR"
	}

	parsed, err := phonenumbers.Parse(raw, defaultRegion)
	if err == nil && phonenumbers.IsPossibleNumber(parsed) {
		return phonenumbers.Format(parsed, phonenumbers.E164)
	}
	return DigitsOnly(raw)
}

// DigitsOnly strips everything but digits from a phone-ish string
func DigitsOnly(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhoneFromJID extracts the phone digits from a WhatsApp JID like
// "5511999990000@s.whatsapp.net"
func PhoneFromJID(jid string) string {
	if at := strings.IndexByte(jid, '@'); at >= 0 {
		jid = jid[:at]
	}
	return DigitsOnly(jid)
}

// IsGroupJID reports whether the JID belongs to a group chat
func IsGroupJID(jid string) bool {
	return strings.HasSuffix(jid, "@g.us")
}
