package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactMail(t *testing.T) {
	assert.Equal(t, "ju***@example.com", RedactMail("juan.perez@example.com"))
	assert.Equal(t, "***@example.com", RedactMail("jp@example.com"))
	assert.Equal(t, "***@***", RedactMail("not-a-mail"))
}

func TestRedactPhone(t *testing.T) {
	assert.Equal(t, "******7788", RedactPhone("1155667788"))
	assert.Equal(t, "****", RedactPhone("123"))
}

func TestRedactValue(t *testing.T) {
	assert.Equal(t, "an***@mail.com", redactValue("mail", "ana@mail.com"))
	assert.Equal(t, "******7788", redactValue("telefono", "1155667788"))
	assert.Equal(t, "*******4455", redactValue("phone_number", "11223344455"))
	// Embedded mail addresses in generic fields are masked too.
	assert.Equal(t, "contactar a an***@mail.com hoy", redactValue("nota", "contactar a ana@mail.com hoy"))
	assert.Equal(t, "sin datos", redactValue("nota", "sin datos"))
}
