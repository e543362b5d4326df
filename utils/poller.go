package utils

import (
	"context"
	"errors"
	"log"
	"time"
)

// Poller periodically fetches every registered member's progress on the
// active challenge games and feeds the batches to the ingestion queue. A
// fetch failure skips that user/game pair for the cycle: awards are only
// ever derived from a complete fetch.
type Poller struct {
	fetcher  AchievementFetcher
	catalog  *GameRuleCatalog
	users    UserDirectory
	queue    *IngestionQueue
	interval time.Duration

	ticker *time.Ticker
	done   chan bool
}

func NewPoller(fetcher AchievementFetcher, catalog *GameRuleCatalog, users UserDirectory, queue *IngestionQueue, interval time.Duration) *Poller {
	return &Poller{
		fetcher:  fetcher,
		catalog:  catalog,
		users:    users,
		queue:    queue,
		interval: interval,
		done:     make(chan bool),
	}
}

// Start launches the polling loop. The first cycle runs immediately so a
// restart does not delay awards by a full interval.
func (p *Poller) Start() {
	p.ticker = time.NewTicker(p.interval)
	go func() {
		p.PollOnce(context.Background())
		for {
			select {
			case <-p.ticker.C:
				p.PollOnce(context.Background())
			case <-p.done:
				return
			}
		}
	}()
	log.Printf("poller: checking achievements every %s", p.interval)
}

// Stop halts the polling loop.
func (p *Poller) Stop() {
	if p.ticker != nil {
		p.ticker.Stop()
		close(p.done)
	}
}

// PollOnce runs a single polling cycle.
func (p *Poller) PollOnce(ctx context.Context) {
	usernames, err := p.users.All(ctx)
	if err != nil {
		log.Printf("poller: failed to list registered users: %v", err)
		return
	}

	rules := p.catalog.ActiveRules()
	for _, username := range usernames {
		var batches []GameBatch
		for _, rule := range rules {
			records, err := p.fetcher.FetchAchievements(ctx, username, rule.GameID)
			if err != nil {
				var fe *FetchError
				if errors.As(err, &fe) {
					log.Printf("poller: skipping %s/%s this cycle: %v", username, rule.GameID, err)
					continue
				}
				log.Printf("poller: unexpected fetch error for %s/%s: %v", username, rule.GameID, err)
				continue
			}
			if len(records) == 0 {
				continue
			}
			batches = append(batches, GameBatch{GameID: rule.GameID, Achievements: records})
		}
		if len(batches) > 0 {
			p.queue.Enqueue(username, batches)
		}
	}
}
