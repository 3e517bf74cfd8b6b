package tracking

import (
	"context"
	"sync"
	"sync/atomic"
)

// Token identifies one request for a subject. Tokens only ever increase.
type Token uint64

// Generations makes sure only the latest request for a subject (a tracked
// run or a search query) gets applied. Issuing a new token cancels the
// context of the request it supersedes.
type Generations struct {
	counter atomic.Uint64

	mutex   sync.Mutex
	current map[string]*generation
}

type generation struct {
	token  Token
	cancel context.CancelFunc
}

func NewGenerations() *Generations {
	return &Generations{
		current: map[string]*generation{},
	}
}

// Begin issues a new token for subject and returns a context that is
// cancelled as soon as a newer request for the same subject begins.
func (g *Generations) Begin(ctx context.Context, subject string) (context.Context, Token) {
	ctx, cancel := context.WithCancel(ctx)
	token := Token(g.counter.Add(1))

	g.mutex.Lock()
	defer g.mutex.Unlock()

	if previous, exists := g.current[subject]; exists {
		previous.cancel()
	}
	g.current[subject] = &generation{token: token, cancel: cancel}

	return ctx, token
}

func (g *Generations) IsCurrent(subject string, token Token) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	current, exists := g.current[subject]
	return exists && current.token == token
}

// Commit runs apply only if token is still the latest for subject. No newer
// request can begin while apply runs.
func (g *Generations) Commit(subject string, token Token, apply func()) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	current, exists := g.current[subject]
	if !exists || current.token != token {
		return false
	}

	apply()

	return true
}

// Finish releases the request's context. The token stays current so a late
// Commit from the same request is still accepted.
func (g *Generations) Finish(subject string, token Token) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if current, exists := g.current[subject]; exists && current.token == token {
		current.cancel()
	}
}

// Stop cancels any in flight request for subject and forgets it, so
// nothing that is still running can be applied.
func (g *Generations) Stop(subject string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if current, exists := g.current[subject]; exists {
		current.cancel()
		delete(g.current, subject)
	}
}

func (g *Generations) Len() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	return len(g.current)
}
