package providers

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"metasearch/websearch/types"
)

const (
	YandexName    = "yandex"
	yandexBaseURL = "https://yandex.com/search/xml"

	yandexErrNoResults = 15
)

// YandexProvider провайдер для Yandex XML Search API
type YandexProvider struct {
	baseProvider
	apiKey string
	user   string
}

// NewYandexProvider создает новый провайдер Yandex
func NewYandexProvider(apiKey, user string, opts Options) *YandexProvider {
	return &YandexProvider{
		baseProvider: newBaseProvider(YandexName, "Яндекс", yandexBaseURL, opts),
		apiKey:       apiKey,
		user:         user,
	}
}

// IsAvailable провайдер доступен только с ключом и пользователем
func (y *YandexProvider) IsAvailable() bool {
	return y.apiKey != "" && y.user != ""
}

// ValidateCredentials проверяет наличие учетных данных
func (y *YandexProvider) ValidateCredentials(ctx context.Context) error {
	if y.apiKey == "" {
		return fmt.Errorf("API key is required for Yandex")
	}
	if y.user == "" {
		return fmt.Errorf("user is required for Yandex")
	}
	return nil
}

// GetDirectSearchURL ссылка на поиск на сайте Яндекса
func (y *YandexProvider) GetDirectSearchURL(query, language string) string {
	params := url.Values{}
	params.Set("text", query)
	params.Set("lang", baseLanguage(language))
	return searchURL("https://yandex.ru/search/", params)
}

// Search выполняет поиск через Yandex XML Search API
func (y *YandexProvider) Search(ctx context.Context, query, language string) (*types.ProviderResult, error) {
	params := url.Values{}
	params.Set("user", y.user)
	params.Set("key", y.apiKey)
	params.Set("query", query)
	params.Set("l10n", baseLanguage(language))
	params.Set("filter", "moderate")
	params.Set("groupby", fmt.Sprintf("attr=d.mode=deep.groups-on-page=%d.docs-in-group=1", defaultResultCount))
	if y.region != "" {
		params.Set("lr", y.region)
	}

	body, err := y.get(ctx, searchURL(y.baseURL, params), nil)
	if err != nil {
		return nil, err
	}

	var resp YandexResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, types.NewParseError(err)
	}

	if resp.Response.Error != nil {
		if resp.Response.Error.Code == yandexErrNoResults {
			return newResult(y.name, query, []types.SearchItem{}), nil
		}
		return nil, yandexAPIError(resp.Response.Error)
	}

	return newResult(y.name, query, y.transformResults(&resp)), nil
}

// xmlText текстовое содержимое элемента вместе с вложенными тегами (например, hlword)
type xmlText string

func (t *xmlText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var sb strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case xml.CharData:
			sb.Write(v)
		case xml.EndElement:
			if v.Name == start.Name {
				*t = xmlText(strings.Join(strings.Fields(sb.String()), " "))
				return nil
			}
		}
	}
}

// YandexError ошибка в теле XML ответа
type YandexError struct {
	Code    int    `xml:"code,attr"`
	Message string `xml:",chardata"`
}

// YandexResponse структура ответа Yandex XML API
type YandexResponse struct {
	XMLName  xml.Name `xml:"yandexsearch"`
	Response struct {
		Error   *YandexError `xml:"error"`
		Results struct {
			Grouping struct {
				Groups []struct {
					Doc struct {
						URL      string    `xml:"url"`
						Domain   string    `xml:"domain"`
						Title    xmlText   `xml:"title"`
						Headline xmlText   `xml:"headline"`
						Passages []xmlText `xml:"passages>passage"`
					} `xml:"doc"`
				} `xml:"group"`
			} `xml:"grouping"`
		} `xml:"results"`
	} `xml:"response"`
}

// transformResults преобразует ответ Yandex в унифицированный формат
func (y *YandexProvider) transformResults(resp *YandexResponse) []types.SearchItem {
	groups := resp.Response.Results.Grouping.Groups
	items := make([]types.SearchItem, 0, len(groups))

	for i, group := range groups {
		doc := group.Doc
		if doc.URL == "" {
			continue
		}

		snippet := string(doc.Headline)
		if len(doc.Passages) > 0 {
			parts := make([]string, 0, len(doc.Passages))
			for _, p := range doc.Passages {
				parts = append(parts, string(p))
			}
			snippet = strings.Join(parts, " … ")
		}

		items = append(items, types.SearchItem{
			Title:      string(doc.Title),
			URL:        doc.URL,
			Snippet:    snippet,
			DisplayURL: displayURL(doc.URL),
			Relevance:  relevanceAt(i),
			Extra:      map[string]string{"domain": doc.Domain},
		})
	}

	return items
}

// yandexAPIError переводит код ошибки XML API в HTTP статус для классификации
func yandexAPIError(e *YandexError) error {
	status := http.StatusBadGateway
	switch e.Code {
	case 32, 55:
		// превышен лимит запросов
		status = http.StatusTooManyRequests
	case 31, 33, 42, 43:
		// ключ или IP не зарегистрированы
		status = http.StatusForbidden
	case 2:
		// пустой запрос
		status = http.StatusBadRequest
	}
	return &types.HTTPStatusError{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       fmt.Sprintf("yandex error %d: %s", e.Code, strings.TrimSpace(e.Message)),
	}
}
