package websearch

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuery(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	query, err := NewQuery("  golang channels  ", "RU", "en", now)
	require.NoError(t, err)

	assert.Equal(t, "golang channels", query.Text)
	assert.Equal(t, "ru", query.Language)
	assert.Equal(t, now, query.IssuedAt)
	assert.Len(t, query.CorrelationID, 36)
}

func TestNewQuery_UniqueCorrelationIDs(t *testing.T) {
	first, err := NewQuery("cats", "en", "en", time.Now())
	require.NoError(t, err)
	second, err := NewQuery("cats", "en", "en", time.Now())
	require.NoError(t, err)

	assert.NotEqual(t, first.CorrelationID, second.CorrelationID)
}

func TestNewQuery_EmptyText(t *testing.T) {
	for _, text := range []string{"", " ", "\n\t "} {
		_, err := NewQuery(text, "en", "en", time.Now())
		assert.ErrorIs(t, err, ErrInvalidInput, "%q", text)
	}
}

func TestNewQuery_KeepsLongText(t *testing.T) {
	long := strings.Repeat("ж", 250) + " конец"

	query, err := NewQuery("  "+long+"  ", "ru", "en", time.Now())
	require.NoError(t, err)

	assert.Equal(t, long, query.Text)
}

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		in       string
		fallback string
		want     string
	}{
		{"en", "ru", "en"},
		{"EN", "ru", "en"},
		{" ru ", "en", "ru"},
		{"", "ru", "ru"},
		{"", "", "en"},
		{"pt-BR", "en", "pt-br"},
		{"en_US", "en", "en-us"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLanguage(tt.in, tt.fallback), tt.in)
	}
}

func TestNormalizeLanguage_Unparsable(t *testing.T) {
	assert.Equal(t, "not a language!", NormalizeLanguage(" Not a Language! ", "en"))
	assert.Equal(t, "123456789", NormalizeLanguage("123456789", "en"))
	assert.Equal(t, "e", NormalizeLanguage("E", "ru"))
}
