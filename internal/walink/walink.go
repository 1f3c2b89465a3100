// Package walink builds WhatsApp deep links with a templated first
// greeting, addressed by the contact's given name.
package walink

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DefaultGreeting is the opening message template; %s is the greeting
// name.
const DefaultGreeting = "Hola %s, cómo estás? Soy Alexis, abogado.\n" +
	"Trabajo con productores de seguros cuando el asegurado quiere reclamarle a la compañía del tercero.\n" +
	"Te hago una consulta rápida: cuando un cliente tuyo tiene un choque y quiere reclamar, ¿cómo lo manejás hoy?"

var nonDigitRe = regexp.MustCompile(`\D`)

// Builder renders wa.me links for one deployment: a country calling
// prefix and a greeting template with a single %s for the name.
type Builder struct {
	CountryPrefix string
	Greeting      string
}

// New builds a Builder, falling back to Argentina (54) and the default
// greeting when the arguments are blank.
func New(countryPrefix, greeting string) Builder {
	if countryPrefix == "" {
		countryPrefix = "54"
	}
	if greeting == "" {
		greeting = DefaultGreeting
	}
	return Builder{CountryPrefix: countryPrefix, Greeting: greeting}
}

// GreetingName picks the name the message opens with: the second token
// of the full name (names are usually "Surname Firstname" in the source
// sheets) or the first when there is only one, capitalized.
func GreetingName(fullName string) string {
	parts := strings.Fields(strings.TrimSpace(fullName))
	if len(parts) == 0 {
		return ""
	}
	raw := parts[0]
	if len(parts) >= 2 {
		raw = parts[1]
	}
	// Accented names are common, so capitalize by rune.
	r := []rune(strings.ToLower(raw))
	first := strings.ToUpper(string(r[0]))
	return first + string(r[1:])
}

// Link builds the wa.me URL for a phone and contact name. The phone is
// stripped to digits and given the country prefix when missing.
func (b Builder) Link(phone, fullName string) string {
	digits := nonDigitRe.ReplaceAllString(phone, "")
	if !strings.HasPrefix(digits, b.CountryPrefix) {
		digits = b.CountryPrefix + digits
	}
	msg := fmt.Sprintf(b.Greeting, GreetingName(fullName))
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(msg)
}
