package websearch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"metasearch/websearch/types"
)

// ErrInvalidInput ошибка вызывающей стороны: пустой запрос
var ErrInvalidInput = errors.New("invalid input")

// NewQuery проверяет и нормализует входные данные и создает Query.
// Пустой после обрезки пробелов текст дает ErrInvalidInput.
func NewQuery(text, lang, defaultLanguage string, now time.Time) (types.Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.Query{}, fmt.Errorf("%w: query text must not be empty", ErrInvalidInput)
	}

	return types.Query{
		Text:          text,
		Language:      NormalizeLanguage(lang, defaultLanguage),
		IssuedAt:      now,
		CorrelationID: uuid.NewString(),
	}, nil
}

// NormalizeLanguage приводит код языка к каноническому виду BCP 47 в нижнем регистре.
// Пустое значение заменяется языком по умолчанию. Код, который не удается разобрать,
// передается провайдерам как есть в нижнем регистре.
func NormalizeLanguage(lang, defaultLanguage string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		lang = strings.TrimSpace(defaultLanguage)
	}
	if lang == "" {
		lang = DefaultLanguage
	}

	tag, err := language.Parse(lang)
	if err != nil {
		return strings.ToLower(lang)
	}
	return strings.ToLower(tag.String())
}
