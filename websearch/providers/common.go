package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/idna"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"metasearch/websearch/types"
)

const (
	userAgent          = "Metasearch/1.0"
	maxResponseBytes   = 4 << 20
	maxErrorBodyBytes  = 512
	defaultResultCount = 10
)

// Options общие параметры провайдера
type Options struct {
	// BaseURL переопределяет адрес API (для тестов и зеркал)
	BaseURL string
	// Timeout таймаут HTTP клиента; 0 оставляет управление таймаутом контексту вызова
	Timeout time.Duration
	// RateLimit минимальный интервал между запросами; 0 отключает ограничение
	RateLimit   time.Duration
	DisplayName string
	Region      string
	HTTPClient  *http.Client
}

// baseProvider общая часть всех провайдеров: HTTP клиент, ограничитель частоты, имена
type baseProvider struct {
	name        string
	displayName string
	baseURL     string
	region      string
	httpClient  *http.Client
	limiter     *rate.Limiter
	rateLimit   time.Duration
}

func newBaseProvider(name, displayName, baseURL string, opts Options) baseProvider {
	if opts.DisplayName != "" {
		displayName = opts.DisplayName
	}
	if opts.BaseURL != "" {
		baseURL = strings.TrimRight(opts.BaseURL, "/")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Every(opts.RateLimit)
	}

	return baseProvider{
		name:        name,
		displayName: displayName,
		baseURL:     baseURL,
		region:      opts.Region,
		httpClient:  client,
		limiter:     rate.NewLimiter(limit, 1),
		rateLimit:   opts.RateLimit,
	}
}

// GetName возвращает имя провайдера
func (b *baseProvider) GetName() string {
	return b.name
}

// GetDisplayName возвращает отображаемое имя провайдера
func (b *baseProvider) GetDisplayName() string {
	return b.displayName
}

// CheckRateLimit забирает токен ограничителя без ожидания.
// false означает, что запрос сейчас делать нельзя.
func (b *baseProvider) CheckRateLimit() bool {
	return b.limiter.Allow()
}

// GetRateLimit возвращает минимальный интервал между запросами
func (b *baseProvider) GetRateLimit() time.Duration {
	return b.rateLimit
}

// get выполняет GET запрос и возвращает тело ответа.
// Неуспешный статус возвращается как *types.HTTPStatusError.
func (b *baseProvider) get(ctx context.Context, fullURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", b.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &types.HTTPStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s failed to read response: %w", b.name, err)
	}
	return body, nil
}

// decodeJSON разбирает JSON ответ; ошибка разбора становится types.ParseError
func decodeJSON(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return types.NewParseError(err)
	}
	return nil
}

// newResult собирает ProviderResult; служебные поля заполняет координатор
func newResult(name, query string, items []types.SearchItem) *types.ProviderResult {
	return &types.ProviderResult{
		ProviderID: name,
		Query:      query,
		Items:      items,
		ItemCount:  len(items),
		Status:     types.StatusSuccess,
		Timestamp:  time.Now(),
	}
}

// relevanceAt релевантность по позиции в выдаче
func relevanceAt(i int) float64 {
	relevance := 1.0 - float64(i)*0.1
	if relevance < 0.3 {
		relevance = 0.3
	}
	return relevance
}

// baseLanguage возвращает базовый код языка ("en" для "en-us")
func baseLanguage(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return "en"
	}
	base, _ := tag.Base()
	return base.String()
}

// displayURL короткий адрес для показа: хост в юникоде без www и путь
func displayURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	host := u.Hostname()
	if unicodeHost, err := idna.Display.ToUnicode(host); err == nil {
		host = unicodeHost
	}
	host = strings.TrimPrefix(host, "www.")

	path := strings.TrimRight(u.EscapedPath(), "/")
	if decoded, err := url.PathUnescape(path); err == nil {
		path = decoded
	}
	return host + path
}

// searchURL собирает адрес с параметрами
func searchURL(base string, params url.Values) string {
	return base + "?" + params.Encode()
}
