package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"TradeYa/module/challenge/model"
	"TradeYa/tools/errs"
)

// MemStore 内存实现（单测用）
type MemStore struct {
	mu         sync.Mutex
	challenges map[string]*model.Challenge
	parts      map[string]*model.Participation // challengeID|userID
}

func NewMemStore() *MemStore {
	return &MemStore{
		challenges: make(map[string]*model.Challenge),
		parts:      make(map[string]*model.Participation),
	}
}

func partKey(challengeID, userID string) string { return challengeID + "|" + userID }

func (s *MemStore) InsertChallenge(ctx context.Context, c *model.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.challenges[c.ChallengeID] = &cp
	return nil
}

func (s *MemStore) GetChallenge(ctx context.Context, challengeID string) (*model.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[challengeID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *MemStore) ListActive(ctx context.Context, limit int64) ([]*model.Challenge, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Challenge
	for _, c := range s.challenges {
		if c.Status == model.ChallengeActive {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndAt.Before(out[j].EndAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) CloseExpired(ctx context.Context, now time.Time) ([]*model.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Challenge
	for _, c := range s.challenges {
		if c.Status == model.ChallengeActive && c.Expired(now) {
			c.Status = model.ChallengeClosed
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemStore) ActiveByTemplate(ctx context.Context, templateID string) (*model.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.challenges {
		if c.TemplateID == templateID && c.Status == model.ChallengeActive {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemStore) InsertParticipation(ctx context.Context, p *model.Participation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := partKey(p.ChallengeID, p.UserID)
	if _, ok := s.parts[k]; ok {
		return errs.ErrDuplicateKey.Wrap()
	}
	cp := *p
	s.parts[k] = &cp
	return nil
}

func (s *MemStore) GetParticipation(ctx context.Context, challengeID, userID string) (*model.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parts[partKey(challengeID, userID)]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *MemStore) UpdateParticipation(ctx context.Context, p *model.Participation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.parts[partKey(p.ChallengeID, p.UserID)]
	if !ok {
		return errs.ErrRecordNotFound.Wrap()
	}
	cur.Status = p.Status
	cur.SubmissionURL = p.SubmissionURL
	cur.Notes = p.Notes
	cur.SubmittedAt = p.SubmittedAt
	return nil
}

func (s *MemStore) ListParticipants(ctx context.Context, challengeID string, limit int64) ([]*model.Participation, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Participation
	for _, p := range s.parts {
		if p.ChallengeID == challengeID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Store = (*MemStore)(nil)
