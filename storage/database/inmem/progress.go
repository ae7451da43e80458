package inmemdb

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/learntocloud/ltc-backend/core/progress"
)

type progressRepository struct {
	mu      sync.RWMutex
	records map[string]progress.Record // by (user, phase, topic, kind, item) key
}

var _ progress.Repository = (*progressRepository)(nil)

func NewProgressRepository() *progressRepository {
	return &progressRepository{records: make(map[string]progress.Record)}
}

func recordKey(rec progress.Record) string {
	return fmt.Sprintf("%s|%d|%s|%s|%s", rec.UserID, rec.Phase, rec.TopicSlug, rec.Kind, rec.ItemID)
}

func (repo *progressRepository) UpsertRecord(rec progress.Record) (progress.Record, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	key := recordKey(rec)
	if existing, ok := repo.records[key]; ok {
		rec.ID = existing.ID
	} else {
		rec.ID = uuid.New().String()
	}
	repo.records[key] = rec
	return rec, nil
}

func (repo *progressRepository) queryRecords(match func(progress.Record) bool) []progress.Record {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var recs []progress.Record
	for _, rec := range repo.records {
		if match(rec) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Phase != recs[j].Phase {
			return recs[i].Phase < recs[j].Phase
		}
		if recs[i].TopicSlug != recs[j].TopicSlug {
			return recs[i].TopicSlug < recs[j].TopicSlug
		}
		return recs[i].ItemID < recs[j].ItemID
	})
	return recs
}

func (repo *progressRepository) GetPhaseRecords(userID string, phase int) ([]progress.Record, error) {
	return repo.queryRecords(func(rec progress.Record) bool {
		return rec.UserID == userID && rec.Phase == phase
	}), nil
}

func (repo *progressRepository) GetTopicRecords(userID string, phase int, topicSlug string) ([]progress.Record, error) {
	return repo.queryRecords(func(rec progress.Record) bool {
		return rec.UserID == userID && rec.Phase == phase && rec.TopicSlug == topicSlug
	}), nil
}

func (repo *progressRepository) QueryUserRecords(userID string) ([]progress.Record, error) {
	return repo.queryRecords(func(rec progress.Record) bool {
		return rec.UserID == userID
	}), nil
}

func (repo *progressRepository) DeleteUserRecords(userID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for key, rec := range repo.records {
		if rec.UserID == userID {
			delete(repo.records, key)
		}
	}
	return nil
}
