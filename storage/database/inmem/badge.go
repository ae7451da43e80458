package inmemdb

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/learntocloud/ltc-backend/core/badge"
)

type badgeRepository struct {
	mu     sync.RWMutex
	badges map[string]badge.Badge       // by (user, phase) key
	certs  map[string]badge.Certificate // by user ID
}

var _ badge.Repository = (*badgeRepository)(nil)

func NewBadgeRepository() *badgeRepository {
	return &badgeRepository{
		badges: make(map[string]badge.Badge),
		certs:  make(map[string]badge.Certificate),
	}
}

func badgeKey(userID string, phase int) string {
	return fmt.Sprintf("%s|%d", userID, phase)
}

func (repo *badgeRepository) CreateBadge(b badge.Badge) (badge.Badge, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	key := badgeKey(b.UserID, b.Phase)
	if _, ok := repo.badges[key]; ok {
		return badge.Badge{}, badge.ErrBadgeExists
	}
	b.ID = uuid.New().String()
	repo.badges[key] = b
	return b, nil
}

func (repo *badgeRepository) GetBadge(userID string, phase int) (badge.Badge, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if b, ok := repo.badges[badgeKey(userID, phase)]; ok {
		return b, nil
	}
	return badge.Badge{}, badge.ErrBadgeNotFound
}

func (repo *badgeRepository) QueryUserBadges(userID string) ([]badge.Badge, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var badges []badge.Badge
	for _, b := range repo.badges {
		if b.UserID == userID {
			badges = append(badges, b)
		}
	}
	sort.Slice(badges, func(i, j int) bool { return badges[i].Phase < badges[j].Phase })
	return badges, nil
}

func (repo *badgeRepository) CreateCertificate(c badge.Certificate) (badge.Certificate, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.certs[c.UserID]; ok {
		return badge.Certificate{}, badge.ErrCertificateExists
	}
	c.ID = uuid.New().String()
	repo.certs[c.UserID] = c
	return c, nil
}

func (repo *badgeRepository) GetUserCertificate(userID string) (badge.Certificate, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if c, ok := repo.certs[userID]; ok {
		return c, nil
	}
	return badge.Certificate{}, badge.ErrCertificateNotFound
}

func (repo *badgeRepository) GetCertificateByCode(code string) (badge.Certificate, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, c := range repo.certs {
		if c.Code == code {
			return c, nil
		}
	}
	return badge.Certificate{}, badge.ErrCertificateNotFound
}
