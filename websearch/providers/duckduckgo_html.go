package providers

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"metasearch/websearch/types"
)

const (
	DuckDuckGoHTMLName    = "duckduckgo_html"
	duckDuckGoHTMLBaseURL = "https://html.duckduckgo.com/html"
	duckDuckGoHTMLOrigin  = "https://html.duckduckgo.com"
)

// DuckDuckGoHTMLProvider разбирает HTML страницу результатов DuckDuckGo
type DuckDuckGoHTMLProvider struct {
	baseProvider
	maxResults int
}

// NewDuckDuckGoHTMLProvider создает HTML провайдер DuckDuckGo
func NewDuckDuckGoHTMLProvider(opts Options) *DuckDuckGoHTMLProvider {
	return &DuckDuckGoHTMLProvider{
		baseProvider: newBaseProvider(DuckDuckGoHTMLName, "DuckDuckGo HTML", duckDuckGoHTMLBaseURL, opts),
		maxResults:   defaultResultCount,
	}
}

func (d *DuckDuckGoHTMLProvider) IsAvailable() bool {
	return true
}

func (d *DuckDuckGoHTMLProvider) ValidateCredentials(ctx context.Context) error {
	return nil
}

// GetDirectSearchURL ссылка на HTML выдачу DuckDuckGo
func (d *DuckDuckGoHTMLProvider) GetDirectSearchURL(query, language string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("kl", duckDuckGoRegion(language))
	return searchURL(duckDuckGoHTMLBaseURL+"/", params)
}

// Search загружает страницу результатов и извлекает ссылки
func (d *DuckDuckGoHTMLProvider) Search(ctx context.Context, query, language string) (*types.ProviderResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("kl", duckDuckGoRegion(language))

	body, err := d.get(ctx, searchURL(d.baseURL+"/", params), map[string]string{
		"Accept":          "text/html",
		"Accept-Language": language,
	})
	if err != nil {
		return nil, err
	}

	items, err := d.parseResults(body)
	if err != nil {
		return nil, err
	}
	return newResult(d.name, query, items), nil
}

// parseResults извлекает результаты из HTML выдачи
func (d *DuckDuckGoHTMLProvider) parseResults(body []byte) ([]types.SearchItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, types.NewParseError(err)
	}

	items := make([]types.SearchItem, 0, d.maxResults)
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		// рекламные блоки пропускаем
		if s.HasClass("result--ad") {
			return true
		}

		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		target := resolveDuckDuckGoLink(href)
		if target == "" {
			return true
		}

		title := strings.TrimSpace(link.Text())
		snippet := strings.TrimSpace(s.Find(".result__snippet").First().Text())
		if title == "" {
			title = snippet
		}

		items = append(items, types.SearchItem{
			Title:      title,
			URL:        target,
			Snippet:    snippet,
			DisplayURL: displayURL(target),
			Relevance:  relevanceAt(len(items)),
		})
		return len(items) < d.maxResults
	})

	return items, nil
}

// resolveDuckDuckGoLink раскрывает редирект вида //duckduckgo.com/l/?uddg=<url>
func resolveDuckDuckGoLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(href, "//"):
		href = "https:" + href
	case strings.HasPrefix(href, "/"):
		href = duckDuckGoHTMLOrigin + href
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasPrefix(parsed.Path, "/l/") {
		if target := parsed.Query().Get("uddg"); target != "" {
			return target
		}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	return parsed.String()
}
