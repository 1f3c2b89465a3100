package walink

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGreetingName(t *testing.T) {
	tests := []struct {
		name string
		full string
		want string
	}{
		{"second token of surname-first names", "Gomez Ana", "Ana"},
		{"single token", "ana", "Ana"},
		{"lowercases the rest", "PEREZ JUAN CARLOS", "Juan"},
		{"accented", "lopez ángel", "Ángel"},
		{"surrounding whitespace", "  Diaz   Marta  ", "Marta"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GreetingName(tt.full))
		})
	}
}

func TestLinkAddsCountryPrefix(t *testing.T) {
	b := New("", "")

	link := b.Link("11 5566-7788", "Gomez Ana")
	assert.True(t, strings.HasPrefix(link, "https://wa.me/541155667788?text="), link)

	// Already-international numbers keep their prefix.
	link = b.Link("54 9 11 5566 7788", "Gomez Ana")
	assert.True(t, strings.HasPrefix(link, "https://wa.me/5491155667788?text="), link)
}

func TestLinkMessage(t *testing.T) {
	b := New("54", "Hola %s!")
	link := b.Link("1155667788", "Gomez Ana")

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", u.Host)
	assert.Equal(t, "Hola Ana!", u.Query().Get("text"))
}

func TestLinkDefaultGreeting(t *testing.T) {
	b := New("", "")
	u, err := url.Parse(b.Link("1155667788", "Perez Juan"))
	require.NoError(t, err)

	text := u.Query().Get("text")
	assert.True(t, strings.HasPrefix(text, "Hola Juan, cómo estás? Soy Alexis, abogado."), text)
	assert.Contains(t, text, "productores de seguros")
}

func TestNewDefaults(t *testing.T) {
	b := New("", "")
	assert.Equal(t, "54", b.CountryPrefix)
	assert.Equal(t, DefaultGreeting, b.Greeting)

	b = New("598", "Hola %s")
	assert.Equal(t, "598", b.CountryPrefix)
}
