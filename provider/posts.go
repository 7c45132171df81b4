package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/StanleyRoberts/Nix-Bot-sub000/domain"
)

// PostsProvider pulls ranked posts from a listing source.
type PostsProvider struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

type postEntry struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Over18 bool   `json:"over_18"`
}

func NewPostsProvider(baseURL string, log zerolog.Logger) *PostsProvider {
	return &PostsProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: time.Second * 10},
		log:     log.With().Str("component", "posts_provider").Logger(),
	}
}

// Top returns up to limit ranked posts. Same error contract as the trivia
// source: any failure is a wrapped domain.ErrProviderTransport.
func (p *PostsProvider) Top(ctx context.Context, limit int) ([]domain.Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/top?limit="+strconv.Itoa(limit), nil)
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

	var entries []postEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderTransport, err)
	}

	posts := make([]domain.Post, 0, len(entries))
	for _, e := range entries {
		posts = append(posts, domain.Post{Title: e.Title, URL: e.URL, Mature: e.Over18})
	}
	return posts, nil
}
