package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"metasearch/websearch/types"
)

const (
	BingName    = "bing"
	bingBaseURL = "https://api.bing.microsoft.com/v7.0/search"
)

// BingProvider провайдер для Bing Search API
type BingProvider struct {
	baseProvider
	apiKey string
}

// NewBingProvider создает новый провайдер Bing
func NewBingProvider(apiKey string, opts Options) *BingProvider {
	return &BingProvider{
		baseProvider: newBaseProvider(BingName, "Bing", bingBaseURL, opts),
		apiKey:       apiKey,
	}
}

// IsAvailable провайдер доступен только с ключом API
func (b *BingProvider) IsAvailable() bool {
	return b.apiKey != ""
}

// ValidateCredentials проверяет наличие учетных данных
func (b *BingProvider) ValidateCredentials(ctx context.Context) error {
	if b.apiKey == "" {
		return fmt.Errorf("API key is required for Bing")
	}
	return nil
}

// GetDirectSearchURL ссылка на поиск на сайте Bing
func (b *BingProvider) GetDirectSearchURL(query, language string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("setlang", baseLanguage(language))
	return searchURL("https://www.bing.com/search", params)
}

// Search выполняет поиск через Bing Search API
func (b *BingProvider) Search(ctx context.Context, query, language string) (*types.ProviderResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(defaultResultCount))
	params.Set("setLang", baseLanguage(language))
	if b.region != "" {
		params.Set("mkt", b.region)
	}

	body, err := b.get(ctx, searchURL(b.baseURL, params), map[string]string{
		"Ocp-Apim-Subscription-Key": b.apiKey,
	})
	if err != nil {
		return nil, err
	}

	var resp BingResponse
	if err := decodeJSON(body, &resp); err != nil {
		return nil, err
	}

	return newResult(b.name, query, b.transformResults(&resp)), nil
}

// BingResponse структура ответа Bing Search API
type BingResponse struct {
	WebPages struct {
		Value []struct {
			Name            string `json:"name"`
			URL             string `json:"url"`
			DisplayURL      string `json:"displayUrl"`
			Snippet         string `json:"snippet"`
			DateLastCrawled string `json:"dateLastCrawled"`
			Language        string `json:"language"`
		} `json:"value"`
		TotalEstimatedMatches int `json:"totalEstimatedMatches"`
	} `json:"webPages"`
}

// transformResults преобразует ответ Bing в унифицированный формат
func (b *BingProvider) transformResults(resp *BingResponse) []types.SearchItem {
	items := make([]types.SearchItem, 0, len(resp.WebPages.Value))

	for i, item := range resp.WebPages.Value {
		display := item.DisplayURL
		if display == "" {
			display = displayURL(item.URL)
		}
		display = strings.TrimPrefix(strings.TrimPrefix(display, "https://"), "http://")

		extra := map[string]string{}
		if item.DateLastCrawled != "" {
			extra["date_last_crawled"] = item.DateLastCrawled
		}
		if item.Language != "" {
			extra["language"] = item.Language
		}

		items = append(items, types.SearchItem{
			Title:      item.Name,
			URL:        item.URL,
			Snippet:    item.Snippet,
			DisplayURL: display,
			Relevance:  relevanceAt(i),
			Extra:      extra,
		})
	}

	return items
}
