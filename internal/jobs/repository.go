package jobs

import (
	"context"
	"sort"
	"sync"
)

// Repository 费率卡持久化
type Repository interface {
	Save(ctx context.Context, card *RateCard) error
	Get(ctx context.Context, id string) (*RateCard, error)
	// List 按创建时间倒序返回摘要（不含 Result）
	List(ctx context.Context, limit, offset int) ([]RateCard, error)
	Delete(ctx context.Context, id string) error
}

const defaultListLimit = 50

// MemoryRepository 进程内实现
type MemoryRepository struct {
	mu    sync.RWMutex
	cards map[string]*RateCard
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{cards: make(map[string]*RateCard)}
}

func (r *MemoryRepository) Save(_ context.Context, card *RateCard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *card
	r.cards[card.ID] = &c
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*RateCard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cards[id]
	if !ok {
		return nil, ErrRateCardNotFound
	}
	out := *c
	return &out, nil
}

func (r *MemoryRepository) List(_ context.Context, limit, offset int) ([]RateCard, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	all := make([]RateCard, 0, len(r.cards))
	for _, c := range r.cards {
		s := *c
		s.Result = nil
		all = append(all, s)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	if offset >= len(all) {
		return []RateCard{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cards[id]; !ok {
		return ErrRateCardNotFound
	}
	delete(r.cards, id)
	return nil
}
