package forms

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequired(t *testing.T) {
	v := validateRequired("Title", 5)
	assert.Error(t, v("   "))
	assert.Error(t, v("toolong"))
	assert.NoError(t, v("  ok  "))
}

func TestValidateMaxLength(t *testing.T) {
	v := validateMaxLength("Description", 3)
	assert.NoError(t, v(""))
	assert.NoError(t, v("äöü"))
	assert.Error(t, v("abcd"))
}

func TestDates(t *testing.T) {
	assert.NoError(t, validateOptionalDate(""))
	assert.NoError(t, validateOptionalDate("2025-02-28"))
	assert.Error(t, validateOptionalDate("28/02/2025"))

	assert.Nil(t, parseDate(" "))
	d := parseDate("2025-02-28")
	require.NotNil(t, d)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), *d)
}

func TestOptional(t *testing.T) {
	assert.Nil(t, optional("   "))
	got := optional("  note ")
	require.NotNil(t, got)
	assert.Equal(t, "note", *got)
}

func TestAuthValidators(t *testing.T) {
	assert.Error(t, validateEmail(""))
	assert.Error(t, validateEmail("ana"))
	assert.NoError(t, validateEmail("ana@example.com"))

	login := &AuthForm{}
	assert.Error(t, login.validatePassword(""))
	assert.NoError(t, login.validatePassword("abc"))

	register := &AuthForm{register: true}
	assert.Error(t, register.validatePassword("abc"))
	assert.NoError(t, register.validatePassword(strings.Repeat("x", minPasswordLength)))
}

func TestFrameBounds(t *testing.T) {
	assert.Equal(t, 40, frame{width: 10}.formWidth())
	assert.Equal(t, 100, frame{width: 300}.formWidth())
	assert.Equal(t, 10, frame{height: 5}.formHeight())
}
