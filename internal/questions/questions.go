// Package questions supplies the category bank consumed once per game
// start. The bank is loaded at process start and must be valid, or the
// server refuses to boot; nothing here sits on the per-request path.
package questions

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fense/trivia/internal/game"
)

//go:embed bank.json
var embedded []byte

// Provider hands out the category list a room samples at game start.
type Provider interface {
	Categories() []game.Category
}

// Bank is an in-memory Provider backed by the embedded bank or a JSON
// file.
type Bank struct {
	categories []game.Category
}

// Load reads the bank from path, or the embedded default when path is
// empty.
func Load(path string) (*Bank, error) {
	data := embedded
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read question bank: %w", err)
		}
		data = b
	}
	return Parse(data)
}

// Parse decodes and validates a JSON category list.
func Parse(data []byte) (*Bank, error) {
	var cats []game.Category
	if err := json.Unmarshal(data, &cats); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if len(cats) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}
	for _, c := range cats {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("category with empty name")
		}
		if len(c.Questions) == 0 {
			return nil, fmt.Errorf("category %q has no questions", c.Name)
		}
		for _, q := range c.Questions {
			if strings.TrimSpace(q.Prompt) == "" {
				return nil, fmt.Errorf("category %q: question %q has no prompt", c.Name, q.ID)
			}
			if strings.TrimSpace(q.Answer) == "" {
				return nil, fmt.Errorf("category %q: question %q has no answer", c.Name, q.ID)
			}
			if q.TimeLimit <= 0 {
				return nil, fmt.Errorf("category %q: question %q has no time limit", c.Name, q.ID)
			}
		}
	}
	return &Bank{categories: cats}, nil
}

// Categories returns the bank. Consumers sample into their own copy and
// must not mutate the returned slices.
func (b *Bank) Categories() []game.Category {
	return b.categories
}
