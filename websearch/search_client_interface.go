package websearch

import (
	"context"
)

// SearchClientInterface интерфейс потребителя агрегированного поиска (HTTP API, CLI)
type SearchClientInterface interface {
	// Aggregate выполняет поиск по всем зарегистрированным провайдерам
	Aggregate(ctx context.Context, text, language string) (*AggregatedResult, error)

	// AggregateWithCallback то же, что Aggregate, с прогрессивными уведомлениями
	AggregateWithCallback(ctx context.Context, text, language string, onSettled SettledFunc) (*AggregatedResult, error)
}

// Проверка, что агрегатор реализует интерфейс
var _ SearchClientInterface = (*Aggregator)(nil)
