package grouper

import (
	"github.com/eshaffer321/recurring-finder/internal/domain/normalizer"
	"github.com/eshaffer321/recurring-finder/internal/domain/transaction"
)

// Group is a set of transactions believed to share one merchant.
// Name is the raw merchant text of the record that created the group and
// is never changed afterwards.
type Group struct {
	Name    string
	Key     string // canonical key of Name
	Members []transaction.Transaction
}

// NewGroup builds a group named after name holding members in order.
func NewGroup(name string, members ...transaction.Transaction) *Group {
	return &Group{
		Name:    name,
		Key:     normalizer.Normalize(name),
		Members: append([]transaction.Transaction(nil), members...),
	}
}

// Groups is an ordered mapping from representative name to Group.
// Iteration follows group creation order.
type Groups struct {
	list   []*Group
	byName map[string]*Group
}

// NewGroups returns an empty mapping.
func NewGroups() *Groups {
	return &Groups{byName: make(map[string]*Group)}
}

// Add appends g, replacing any group already registered under g.Name in place.
func (gs *Groups) Add(g *Group) {
	if existing, ok := gs.byName[g.Name]; ok {
		for i, cur := range gs.list {
			if cur == existing {
				gs.list[i] = g
				break
			}
		}
		gs.byName[g.Name] = g
		return
	}
	gs.add(g)
}

func (gs *Groups) add(g *Group) {
	gs.list = append(gs.list, g)
	gs.byName[g.Name] = g
}

// Get returns the group registered under name.
func (gs *Groups) Get(name string) (*Group, bool) {
	g, ok := gs.byName[name]
	return g, ok
}

// List returns the groups in creation order.
func (gs *Groups) List() []*Group {
	return append([]*Group(nil), gs.list...)
}

// Names returns the representative names in creation order.
func (gs *Groups) Names() []string {
	names := make([]string, len(gs.list))
	for i, g := range gs.list {
		names[i] = g.Name
	}
	return names
}

// Len returns the number of groups.
func (gs *Groups) Len() int {
	return len(gs.list)
}

// TransactionCount returns the number of records across all groups.
func (gs *Groups) TransactionCount() int {
	n := 0
	for _, g := range gs.list {
		n += len(g.Members)
	}
	return n
}
