// Package subscription handles the inbound subscribe/unsubscribe commands
// and the recipient set they mutate.
package subscription

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"
)

// Store is the set of recipient addresses.
type Store interface {
	Add(ctx context.Context, address string) error
	Remove(ctx context.Context, address string) error
	List(ctx context.Context) ([]string, error)
}

// Seedable is a Store that remembers whether the configured receivers were
// ever seeded into it.
type Seedable interface {
	Store
	Seeded(ctx context.Context) (bool, error)
	MarkSeeded(ctx context.Context) error
}

// Seed adds receivers to the store the first time it is called for that store
// and reports whether it did. Later calls leave the store alone, so receivers
// that unsubscribed stay unsubscribed even when the store is empty.
func Seed(ctx context.Context, store Seedable, receivers []string) (bool, error) {
	seeded, err := store.Seeded(ctx)
	if err != nil {
		return false, err
	}
	if seeded {
		return false, nil
	}
	for _, r := range receivers {
		if err := store.Add(ctx, r); err != nil {
			return false, fmt.Errorf("failed to seed receiver %q: %w", r, err)
		}
	}
	if err := store.MarkSeeded(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Cursor remembers the receivedAt of the last processed inbound message.
type Cursor interface {
	Load(ctx context.Context) (time.Time, error)
	Save(ctx context.Context, receivedAt time.Time) error
}

// Normalize reduces "Jane Doe <Jane@Example.com>" to "jane@example.com".
func Normalize(address string) (string, error) {
	parsed, err := mail.ParseAddress(strings.TrimSpace(address))
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", address, err)
	}
	return strings.ToLower(parsed.Address), nil
}

// Set is an in-memory Store. It is not safe for concurrent use.
type Set struct {
	addrs  map[string]struct{}
	seeded bool
}

func NewSet(addresses ...string) *Set {
	s := &Set{addrs: make(map[string]struct{}, len(addresses))}
	for _, a := range addresses {
		_ = s.Add(context.Background(), a)
	}
	return s
}

func (s *Set) Add(_ context.Context, address string) error {
	addr, err := Normalize(address)
	if err != nil {
		return err
	}
	s.addrs[addr] = struct{}{}
	return nil
}

func (s *Set) Remove(_ context.Context, address string) error {
	addr, err := Normalize(address)
	if err != nil {
		return err
	}
	delete(s.addrs, addr)
	return nil
}

// List returns the addresses in sorted order.
func (s *Set) List(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(s.addrs))
	for a := range s.addrs {
		out = append(out, a)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Set) Seeded(context.Context) (bool, error) {
	return s.seeded, nil
}

func (s *Set) MarkSeeded(context.Context) error {
	s.seeded = true
	return nil
}

// MemoryCursor is a Cursor that does not survive restarts.
type MemoryCursor struct {
	last time.Time
}

func (c *MemoryCursor) Load(context.Context) (time.Time, error) {
	return c.last, nil
}

func (c *MemoryCursor) Save(_ context.Context, receivedAt time.Time) error {
	c.last = receivedAt
	return nil
}
