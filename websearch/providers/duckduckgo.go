package providers

import (
	"context"
	"net/url"

	"metasearch/websearch/types"
)

const (
	DuckDuckGoName    = "duckduckgo"
	duckDuckGoBaseURL = "https://api.duckduckgo.com"
)

// DuckDuckGoProvider провайдер для DuckDuckGo Instant Answer API
type DuckDuckGoProvider struct {
	baseProvider
}

// NewDuckDuckGoProvider создает новый провайдер DuckDuckGo
func NewDuckDuckGoProvider(opts Options) *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		baseProvider: newBaseProvider(DuckDuckGoName, "DuckDuckGo", duckDuckGoBaseURL, opts),
	}
}

// IsAvailable DuckDuckGo не требует ключей и всегда доступен
func (d *DuckDuckGoProvider) IsAvailable() bool {
	return true
}

// ValidateCredentials для DuckDuckGo ключ не требуется
func (d *DuckDuckGoProvider) ValidateCredentials(ctx context.Context) error {
	return nil
}

// GetDirectSearchURL ссылка на поиск на сайте DuckDuckGo
func (d *DuckDuckGoProvider) GetDirectSearchURL(query, language string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("kl", duckDuckGoRegion(language))
	return searchURL("https://duckduckgo.com/", params)
}

// Search выполняет поиск через DuckDuckGo API
func (d *DuckDuckGoProvider) Search(ctx context.Context, query, language string) (*types.ProviderResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")
	params.Set("kl", duckDuckGoRegion(language))

	body, err := d.get(ctx, searchURL(d.baseURL+"/", params), nil)
	if err != nil {
		return nil, err
	}

	var resp DuckDuckGoResponse
	if err := decodeJSON(body, &resp); err != nil {
		return nil, err
	}

	return newResult(d.name, query, d.transformResults(&resp)), nil
}

// DuckDuckGoTopic элемент RelatedTopics/Results
type DuckDuckGoTopic struct {
	FirstURL string `json:"FirstURL"`
	Result   string `json:"Result"`
	Text     string `json:"Text"`
	Icon     struct {
		URL string `json:"URL"`
	} `json:"Icon"`
	// Группы тем содержат вложенные темы
	Name   string            `json:"Name,omitempty"`
	Topics []DuckDuckGoTopic `json:"Topics,omitempty"`
}

// DuckDuckGoResponse структура ответа DuckDuckGo API
type DuckDuckGoResponse struct {
	Abstract       string            `json:"Abstract"`
	AbstractText   string            `json:"AbstractText"`
	AbstractURL    string            `json:"AbstractURL"`
	AbstractSource string            `json:"AbstractSource"`
	Answer         string            `json:"Answer"`
	AnswerType     string            `json:"AnswerType"`
	Definition     string            `json:"Definition"`
	DefinitionURL  string            `json:"DefinitionURL"`
	Heading        string            `json:"Heading"`
	Image          string            `json:"Image"`
	Redirect       string            `json:"Redirect"`
	RelatedTopics  []DuckDuckGoTopic `json:"RelatedTopics"`
	Results        []DuckDuckGoTopic `json:"Results"`
}

// transformResults преобразует ответ DuckDuckGo в унифицированный формат
func (d *DuckDuckGoProvider) transformResults(resp *DuckDuckGoResponse) []types.SearchItem {
	items := make([]types.SearchItem, 0)

	if resp.AbstractText != "" {
		items = append(items, types.SearchItem{
			Title:      resp.Heading,
			URL:        resp.AbstractURL,
			Snippet:    resp.AbstractText,
			DisplayURL: displayURL(resp.AbstractURL),
			Relevance:  1.0,
			Extra:      map[string]string{"type": "abstract", "source": resp.AbstractSource},
		})
	}

	if resp.Definition != "" && resp.DefinitionURL != "" {
		items = append(items, types.SearchItem{
			Title:      resp.Heading,
			URL:        resp.DefinitionURL,
			Snippet:    resp.Definition,
			DisplayURL: displayURL(resp.DefinitionURL),
			Relevance:  0.9,
			Extra:      map[string]string{"type": "definition"},
		})
	}

	for _, result := range resp.Results {
		items = appendTopic(items, result, 0.8, "result")
	}
	for _, topic := range resp.RelatedTopics {
		if len(topic.Topics) > 0 {
			for _, nested := range topic.Topics {
				items = appendTopic(items, nested, 0.6, "related")
			}
			continue
		}
		items = appendTopic(items, topic, 0.7, "related")
	}

	return items
}

func appendTopic(items []types.SearchItem, topic DuckDuckGoTopic, relevance float64, kind string) []types.SearchItem {
	if topic.FirstURL == "" || topic.Text == "" {
		return items
	}
	return append(items, types.SearchItem{
		Title:      topic.Text,
		URL:        topic.FirstURL,
		Snippet:    topic.Text,
		DisplayURL: displayURL(topic.FirstURL),
		Relevance:  relevance,
		Extra:      map[string]string{"type": kind},
	})
}

// duckDuckGoRegion параметр kl по коду языка
func duckDuckGoRegion(lang string) string {
	switch baseLanguage(lang) {
	case "ru":
		return "ru-ru"
	case "de":
		return "de-de"
	case "fr":
		return "fr-fr"
	case "es":
		return "es-es"
	case "en":
		return "us-en"
	default:
		return "wt-wt"
	}
}
