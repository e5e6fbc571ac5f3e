package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"metasearch/websearch/types"
)

const (
	GoogleName    = "google"
	googleBaseURL = "https://www.googleapis.com/customsearch/v1"
)

// GoogleProvider провайдер для Google Custom Search API
type GoogleProvider struct {
	baseProvider
	apiKey   string
	searchID string
}

// NewGoogleProvider создает новый провайдер Google
func NewGoogleProvider(apiKey, searchID string, opts Options) *GoogleProvider {
	return &GoogleProvider{
		baseProvider: newBaseProvider(GoogleName, "Google", googleBaseURL, opts),
		apiKey:       apiKey,
		searchID:     searchID,
	}
}

// IsAvailable провайдер доступен только с ключом API и идентификатором поисковой системы
func (g *GoogleProvider) IsAvailable() bool {
	return g.apiKey != "" && g.searchID != ""
}

// ValidateCredentials проверяет наличие учетных данных
func (g *GoogleProvider) ValidateCredentials(ctx context.Context) error {
	if g.apiKey == "" {
		return fmt.Errorf("API key is required for Google")
	}
	if g.searchID == "" {
		return fmt.Errorf("search ID is required for Google")
	}
	return nil
}

// GetDirectSearchURL ссылка на поиск на сайте Google
func (g *GoogleProvider) GetDirectSearchURL(query, language string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", baseLanguage(language))
	return searchURL("https://www.google.com/search", params)
}

// Search выполняет поиск через Google Custom Search API
func (g *GoogleProvider) Search(ctx context.Context, query, language string) (*types.ProviderResult, error) {
	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("cx", g.searchID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(defaultResultCount))
	params.Set("lr", "lang_"+baseLanguage(language))
	if g.region != "" {
		params.Set("gl", g.region)
	}

	body, err := g.get(ctx, searchURL(g.baseURL, params), nil)
	if err != nil {
		return nil, withGoogleErrorMessage(err)
	}

	var resp GoogleResponse
	if err := decodeJSON(body, &resp); err != nil {
		return nil, err
	}

	return newResult(g.name, query, g.transformResults(&resp)), nil
}

// GoogleResponse структура ответа Google Custom Search API
type GoogleResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		DisplayLink string `json:"displayLink"`
		Snippet     string `json:"snippet"`
	} `json:"items"`
	SearchInformation struct {
		TotalResults string `json:"totalResults"`
	} `json:"searchInformation"`
}

// GoogleErrorResponse структура ошибки Google API
type GoogleErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// withGoogleErrorMessage заменяет тело ошибки на сообщение из JSON ответа Google
func withGoogleErrorMessage(err error) error {
	var statusErr *types.HTTPStatusError
	if !errors.As(err, &statusErr) {
		return err
	}
	var errorResp GoogleErrorResponse
	if jsonErr := json.Unmarshal([]byte(statusErr.Body), &errorResp); jsonErr == nil && errorResp.Error.Message != "" {
		statusErr.Body = errorResp.Error.Message
	}
	return statusErr
}

// transformResults преобразует ответ Google в унифицированный формат
func (g *GoogleProvider) transformResults(resp *GoogleResponse) []types.SearchItem {
	items := make([]types.SearchItem, 0, len(resp.Items))

	for i, item := range resp.Items {
		items = append(items, types.SearchItem{
			Title:      item.Title,
			URL:        item.Link,
			Snippet:    item.Snippet,
			DisplayURL: displayURL(item.Link),
			Relevance:  relevanceAt(i),
			Extra:      map[string]string{"display_link": item.DisplayLink},
		})
	}

	return items
}
