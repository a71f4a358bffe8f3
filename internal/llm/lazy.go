package llm

import (
	"context"
	"sync"
)

// Lazy builds its Client on first use and memoizes the outcome. The build
// runs at most once even under concurrent callers.
type Lazy struct {
	once   sync.Once
	build  func() (*Client, error)
	client *Client
	err    error
}

func NewLazy(build func() (*Client, error)) *Lazy {
	return &Lazy{build: build}
}

func (l *Lazy) get() (*Client, error) {
	l.once.Do(func() {
		l.client, l.err = l.build()
	})
	return l.client, l.err
}

// Complete forwards to the memoized client.
func (l *Lazy) Complete(ctx context.Context, req ChatRequest) (string, error) {
	c, err := l.get()
	if err != nil {
		return "", err
	}
	return c.Complete(ctx, req)
}
