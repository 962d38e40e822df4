package chathub

import (
	"context"
	"devlinkr/backend/internal/models"
	"devlinkr/backend/internal/storage"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
)

// ErrNoCandidates means there is nobody else to match with.
var ErrNoCandidates = errors.New("no other users available")

// MatcherService pairs developers by shared skills.
type MatcherService struct {
	Storage storage.UserStore

	// intn picks a random index; replaced in tests.
	intn func(n int) int
}

func NewMatcherService(s storage.UserStore) *MatcherService {
	return &MatcherService{Storage: s, intn: rand.IntN}
}

// Score is the number of skills (tech stack plus interests, case-insensitive)
// the two users have in common.
func Score(a, b *models.User) int {
	sa, sb := a.Skills(), b.Skills()
	if len(sb) < len(sa) {
		sa, sb = sb, sa
	}
	n := 0
	for s := range sa {
		if _, ok := sb[s]; ok {
			n++
		}
	}
	return n
}

// Candidate is a ranked match.
type Candidate struct {
	User  models.User
	Score int
}

// Rank orders everyone except email by score, best first. Equal scores keep
// the store's order.
func (m *MatcherService) Rank(ctx context.Context, email string) ([]Candidate, error) {
	users, err := m.Storage.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	var me *models.User
	for i := range users {
		if users[i].Email == email {
			me = &users[i]
			break
		}
	}
	if me == nil {
		me = &models.User{Email: email}
	}

	var out []Candidate
	for _, u := range users {
		if u.Email == email {
			continue
		}
		out = append(out, Candidate{User: u, Score: Score(me, &u)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// BestMatch returns one of the highest-scoring users, chosen at random among
// ties. With no overlap at all that is simply a random other user.
func (m *MatcherService) BestMatch(ctx context.Context, email string) (*models.User, error) {
	ranked, err := m.Rank(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, ErrNoCandidates
	}

	top := 1
	for top < len(ranked) && ranked[top].Score == ranked[0].Score {
		top++
	}
	picked := ranked[m.intn(top)].User
	return &picked, nil
}
