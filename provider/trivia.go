// Package provider implements the HTTP clients for the external content
// sources. All failures surface as plain errors the callers treat as
// "nothing usable"; retries are not this layer's business.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/StanleyRoberts/Nix-Bot-sub000/domain"
)

const defaultTimeout = time.Second * 10

// TriviaProvider fetches question batches from a trivia API. A provider is
// built per room, carrying that room's difficulty and category selection.
type TriviaProvider struct {
	baseURL    string
	difficulty string
	category   string
	client     *http.Client
	log        zerolog.Logger
}

type triviaResponse struct {
	Results []struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
		Category string `json:"category"`
	} `json:"results"`
}

func NewTriviaProvider(baseURL, difficulty, category string, log zerolog.Logger) *TriviaProvider {
	return &TriviaProvider{
		baseURL:    baseURL,
		difficulty: difficulty,
		category:   category,
		client:     &http.Client{Timeout: defaultTimeout},
		log:        log.With().Str("component", "trivia_provider").Logger(),
	}
}

// FetchBatch asks the source for at least minCount questions. Transport
// failures and non-success statuses come back as wrapped
// domain.ErrProviderTransport errors.
func (p *TriviaProvider) FetchBatch(ctx context.Context, minCount int) ([]domain.Question, error) {
	q := url.Values{}
	q.Set("amount", strconv.Itoa(minCount))
	if p.difficulty != "" {
		q.Set("difficulty", p.difficulty)
	}
	if p.category != "" {
		q.Set("category", p.category)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/questions?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderTransport, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrProviderTransport, resp.StatusCode)
	}

	var body triviaResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderTransport, err)
	}

	batch := make([]domain.Question, 0, len(body.Results))
	for _, r := range body.Results {
		batch = append(batch, domain.Question{Text: r.Question, Answer: r.Answer, Category: r.Category})
	}
	p.log.Debug().Int("count", len(batch)).Msg("fetched question batch")
	return batch, nil
}
