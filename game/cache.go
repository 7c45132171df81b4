package game

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/StanleyRoberts/Nix-Bot-sub000/domain"
)

// QuestionCache buffers a provider's batched results and serves one item at
// a time. It is owned by exactly one session and only touched under that
// session's lock, so it carries no synchronization of its own.
type QuestionCache struct {
	provider  Provider
	batchSize int
	filter    func(domain.Question) bool
	buf       []domain.Question
	rng       Rand
	log       zerolog.Logger
}

func NewQuestionCache(provider Provider, batchSize int, filter func(domain.Question) bool, rng Rand, log zerolog.Logger) *QuestionCache {
	return &QuestionCache{
		provider:  provider,
		batchSize: batchSize,
		filter:    filter,
		rng:       rng,
		log:       log.With().Str("component", "question_cache").Logger(),
	}
}

// Get pops the next item. On an empty buffer it performs one synchronous
// refill attempt before popping again; if the refill yields zero usable
// items it returns domain.ErrProviderExhausted. An already-served item is
// never served again within the cache's lifetime.
func (c *QuestionCache) Get(ctx context.Context) (domain.Question, error) {
	if len(c.buf) == 0 {
		c.refill(ctx)
	}
	if len(c.buf) == 0 {
		return domain.Question{}, domain.ErrProviderExhausted
	}

	q := c.buf[0]
	c.buf = c.buf[1:]
	return q, nil
}

// refill fetches one batch, drops filtered items and appends the rest in
// shuffled order so the provider's ordering never leaks into the question
// sequence. Provider errors count as an empty batch.
func (c *QuestionCache) refill(ctx context.Context) {
	batch, err := c.provider.FetchBatch(ctx, c.batchSize)
	if err != nil {
		c.log.Warn().Err(err).Msg("provider fetch failed, treating as empty batch")
		return
	}

	usable := make([]domain.Question, 0, len(batch))
	for _, q := range batch {
		if c.filter != nil && !c.filter(q) {
			continue
		}
		usable = append(usable, q)
	}

	c.rng.Shuffle(len(usable), func(i, j int) {
		usable[i], usable[j] = usable[j], usable[i]
	})
	c.buf = append(c.buf, usable...)
}
