package inmemdb

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/learntocloud/ltc-backend/core/handson"
)

type handsOnRepository struct {
	mu   sync.RWMutex
	subs map[string]handson.Submission // by (user, phase) key
}

var _ handson.Repository = (*handsOnRepository)(nil)

func NewHandsOnRepository() *handsOnRepository {
	return &handsOnRepository{subs: make(map[string]handson.Submission)}
}

func submissionKey(userID string, phase int) string {
	return fmt.Sprintf("%s|%d", userID, phase)
}

func (repo *handsOnRepository) UpsertSubmission(sub handson.Submission) (handson.Submission, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	key := submissionKey(sub.UserID, sub.Phase)
	if existing, ok := repo.subs[key]; ok {
		sub.ID = existing.ID
	} else {
		sub.ID = uuid.New().String()
	}
	repo.subs[key] = sub
	return sub, nil
}

func (repo *handsOnRepository) GetSubmission(userID string, phase int) (handson.Submission, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if sub, ok := repo.subs[submissionKey(userID, phase)]; ok {
		return sub, nil
	}
	return handson.Submission{}, handson.ErrNotFound
}

func (repo *handsOnRepository) QueryUserSubmissions(userID string) ([]handson.Submission, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var subs []handson.Submission
	for _, sub := range repo.subs {
		if sub.UserID == userID {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Phase < subs[j].Phase })
	return subs, nil
}
