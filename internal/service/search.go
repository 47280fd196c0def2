package service

import (
	"strings"

	"go.uber.org/zap"

	"github.com/typez/typezd/internal/store"
)

// Search queries the full-text shadows and hydrates primary rows. The
// shadows are written synchronously with every primary write, so results
// are never stale.
type Search struct {
	db  *store.DB
	log *zap.Logger
}

// NewSearch creates the search engine.
func NewSearch(db *store.DB, log *zap.Logger) *Search {
	return &Search{db: db, log: log}
}

// MessageOptions scopes a message search.
type MessageOptions struct {
	ChatID string
	Limit  int
	Offset int
}

// Messages returns full-text matches over message content, newest-first.
// An empty query matches nothing.
func (s *Search) Messages(query string, opts MessageOptions) ([]store.Message, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}
	msgs, err := store.SearchMessages(s.db, q, opts.ChatID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, store.Classify(err)
	}
	return msgs, nil
}

// Users returns full-text matches over usernames and display names.
func (s *Search) Users(query string, limit, offset int) ([]store.User, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}
	users, err := store.SearchUsers(s.db, q, limit, offset)
	if err != nil {
		return nil, store.Classify(err)
	}
	return users, nil
}
