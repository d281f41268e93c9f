// Package classify locates message blocks in a rendered chat page and
// decides who wrote each one.
//
// Blocks are found by an ordered cascade of strategies: the first strategy
// that matches anything wins and later ones are not consulted. Roles are
// assigned by a second cascade of signals, from the explicit author
// attribute down to a positional guess.
package classify

import (
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/gaurav-prasanna/chatmark/core"
	"github.com/gaurav-prasanna/chatmark/internal/log"
)

// Block is one message container with its assigned role.
type Block struct {
	Node *goquery.Selection
	Role core.Role
	// Index is the block's position among all blocks found, skipped ones included.
	Index int
	// Signal names the role signal that decided Role.
	Signal string
}

// Classifier finds and labels message blocks. It holds no per-document
// state and may be shared.
type Classifier struct {
	strategies []Strategy
	signals    []RoleSignal
	logger     *slog.Logger
}

// New creates a Classifier. Extra selectors are tried, in order, before the
// built-in tiers; an invalid selector is an error.
func New(extraSelectors []string, logger *slog.Logger) (*Classifier, error) {
	strategies := make([]Strategy, 0, len(extraSelectors)+len(defaultSelectors)+1)
	for _, css := range extraSelectors {
		s, err := SelectorStrategy(css)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}
	for _, css := range defaultSelectors {
		strategies = append(strategies, mustSelectorStrategy(css))
	}
	strategies = append(strategies, AncestorStrategy())

	return &Classifier{
		strategies: strategies,
		signals:    DefaultSignals(),
		logger:     log.OrDiscard(logger),
	}, nil
}

// Strategies returns the block-finding cascade in order.
func (c *Classifier) Strategies() []Strategy {
	out := make([]Strategy, len(c.strategies))
	copy(out, c.strategies)
	return out
}

// FindBlocks returns the blocks of the first strategy that matches root,
// and that strategy's name. It returns an empty selection and "" when no
// strategy matches.
func (c *Classifier) FindBlocks(root *goquery.Selection) (*goquery.Selection, string) {
	for _, s := range c.strategies {
		if !s.Match(root) {
			continue
		}
		blocks := s.Blocks(root)
		if blocks.Length() == 0 {
			continue
		}
		c.logger.Debug("found conversation blocks", "strategy", s.Name(), "blocks", blocks.Length())
		return blocks, s.Name()
	}
	c.logger.Debug("no conversation blocks found")
	return root.FilterFunction(func(int, *goquery.Selection) bool { return false }), ""
}

// Classify finds the blocks under root and assigns each a role. Blocks a
// signal asks to skip are left out; the rest keep document order.
func (c *Classifier) Classify(root *goquery.Selection) []Block {
	found, _ := c.FindBlocks(root)

	var blocks []Block
	found.Each(func(i int, sel *goquery.Selection) {
		role, signal, ok := c.role(sel, i)
		if !ok {
			c.logger.Debug("skipping block", "index", i, "signal", signal)
			return
		}
		c.logger.Debug("classified block", "index", i, "role", role, "signal", signal)
		blocks = append(blocks, Block{Node: sel, Role: role, Index: i, Signal: signal})
	})
	return blocks
}

func (c *Classifier) role(block *goquery.Selection, index int) (core.Role, string, bool) {
	for _, s := range c.signals {
		role, d := s.Decide(block, index)
		switch d {
		case Assign:
			return role, s.Name(), true
		case Skip:
			return "", s.Name(), false
		}
	}
	return "", "", false
}
