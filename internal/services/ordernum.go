package services

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// OrderNumbers issues unique, human-readable order numbers.
type OrderNumbers struct {
	node *snowflake.Node
}

// NewOrderNumbers returns a generator for the given snowflake node (0-1023).
// Each running instance needs its own node id.
func NewOrderNumbers(node int64) (*OrderNumbers, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", node, err)
	}
	return &OrderNumbers{node: n}, nil
}

// Next returns "PS" followed by the base36 snowflake id, at most 20 characters.
func (g *OrderNumbers) Next() string {
	return "PS" + strings.ToUpper(g.node.Generate().Base36())
}
