package websearch

import (
	"metasearch/websearch/types"
)

// Реэкспорт типов из websearch/types, чтобы потребителям хватало одного импорта
type Query = types.Query
type SearchItem = types.SearchItem
type ProviderResult = types.ProviderResult
type ProviderOutcome = types.ProviderOutcome
type AggregatedResult = types.AggregatedResult
type Summary = types.Summary
type ErrorRecord = types.ErrorRecord
type ErrorKind = types.ErrorKind
type SearchProviderInterface = types.SearchProviderInterface

// SettledFunc уведомление о финальном исходе провайдера.
// Вызывается ровно один раз на провайдера за вызов Aggregate, никогда для промежуточных повторов.
type SettledFunc func(providerID string, outcome *ProviderOutcome)
