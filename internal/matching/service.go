package matching

// Service answers suggestion and radar queries against a store. cache may be nil.
type Service struct {
	suggestions SuggestionStore
	radar       RadarStore
	cache       Cache
}

func NewService(suggestions SuggestionStore, radar RadarStore, cache Cache) *Service {
	return &Service{
		suggestions: suggestions,
		radar:       radar,
		cache:       cache,
	}
}
