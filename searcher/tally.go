package searcher

import (
	"cmp"
	"slices"
	"sync"

	"github.com/hupe1980/slichash/model"
)

// Candidate is an image that received at least one vote.
type Candidate struct {
	Image model.ImageID
	Votes int
}

// Tally accumulates votes per image for a single query.
//
// Tally is NOT thread-safe. It is intended to be owned by a single goroutine
// during one resolution.
type Tally struct {
	votes map[model.ImageID]int
}

var tallyPool = sync.Pool{
	New: func() interface{} {
		return NewTally()
	},
}

// AcquireTally retrieves an empty Tally from the pool.
func AcquireTally() *Tally {
	return tallyPool.Get().(*Tally)
}

// ReleaseTally resets the Tally and returns it to the pool.
func ReleaseTally(t *Tally) {
	t.Reset()
	tallyPool.Put(t)
}

// NewTally creates an empty Tally.
func NewTally() *Tally {
	return &Tally{votes: make(map[model.ImageID]int)}
}

// Vote adds one vote for id.
func (t *Tally) Vote(id model.ImageID) {
	t.votes[id]++
}

// Votes returns the votes recorded for id.
func (t *Tally) Votes(id model.ImageID) int {
	return t.votes[id]
}

// Len returns the number of images with at least one vote.
func (t *Tally) Len() int {
	return len(t.votes)
}

// Reset clears the tally for reuse.
func (t *Tally) Reset() {
	clear(t.votes)
}

// Best returns the image with the highest vote count. Ties go to the lowest
// ImageID, i.e. the image registered first. ok is false if no votes were cast.
func (t *Tally) Best() (best Candidate, ok bool) {
	for id, votes := range t.votes {
		if !ok || votes > best.Votes || (votes == best.Votes && id < best.Image) {
			best = Candidate{Image: id, Votes: votes}
			ok = true
		}
	}
	return best, ok
}

// Ranking returns every candidate ordered by votes descending, then ImageID
// ascending. The first element, if any, equals Best.
func (t *Tally) Ranking() []Candidate {
	ranking := make([]Candidate, 0, len(t.votes))
	for id, votes := range t.votes {
		ranking = append(ranking, Candidate{Image: id, Votes: votes})
	}
	slices.SortFunc(ranking, func(a, b Candidate) int {
		if c := cmp.Compare(b.Votes, a.Votes); c != 0 {
			return c
		}
		return cmp.Compare(a.Image, b.Image)
	})
	return ranking
}
