package chart

import "strings"

// ObfuscateEmail hides the domain of anything that looks like an email address:
// "user@example.org" becomes "user@…". Other strings are returned unchanged.
func ObfuscateEmail(address string) string {
	at := strings.Index(address, "@")
	if at < 0 {
		return address
	}
	obfuscated := address[:at] + "@…"
	if strings.HasSuffix(address, ">") {
		obfuscated += ">"
	}
	return obfuscated
}
