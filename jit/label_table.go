package jit

import (
	"errors"
	"fmt"

	"github.com/xlab/treeprint"
	"golang.org/x/exp/slices"
)

var (
	ErrLabelNotFound   = errors.New("label table entry not found")
	ErrUnresolvedLabel = errors.New("unresolved label")
)

type SiteKind int

const (
	SiteJump SiteKind = iota
	SiteBranch
	SiteCall
)

func (k SiteKind) String() string {
	switch k {
	case SiteJump:
		return "jmp"
	case SiteBranch:
		return "branch"
	case SiteCall:
		return "call"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Site is one control transfer referring to Label from bytecode offset Jmp.
//
// CodePos is -1 until the main pass fills it. For a backward site it holds
// the physical offset of the label; for a forward site it holds the
// physical offset of the rel32 field awaiting a patch.
type Site struct {
	Label   int
	Jmp     int
	CodePos int
	Kind    SiteKind
	Patched bool
}

// Backward reports whether the label is already emitted when the site is
// reached. A jump to itself counts as backward.
func (s *Site) Backward() bool { return s.Label <= s.Jmp }

// Resolved reports whether the site needs no further work.
func (s *Site) Resolved() bool {
	if s.Backward() {
		return s.CodePos >= 0
	}
	return s.Patched
}

// LabelTable maps a target bytecode offset to every site jumping there.
type LabelTable struct {
	sites map[int][]*Site
	count int
}

func NewLabelTable() *LabelTable {
	return &LabelTable{sites: make(map[int][]*Site)}
}

func (lt *LabelTable) Add(target, jmp int, kind SiteKind) *Site {
	s := &Site{Label: target, Jmp: jmp, CodePos: -1, Kind: kind}
	lt.sites[target] = append(lt.sites[target], s)
	lt.count++
	return s
}

func (lt *LabelTable) Lookup(target int) ([]*Site, bool) {
	s, ok := lt.sites[target]
	return s, ok
}

// Site returns the entry for the transfer at jmp targeting target.
func (lt *LabelTable) Site(target, jmp int) (*Site, error) {
	for _, s := range lt.sites[target] {
		if s.Jmp == jmp {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: target %d from %d", ErrLabelNotFound, target, jmp)
}

func (lt *LabelTable) Len() int { return lt.count }

func (lt *LabelTable) Reset() {
	lt.sites = make(map[int][]*Site)
	lt.count = 0
}

// Labels returns every target offset in ascending order.
func (lt *LabelTable) Labels() []int {
	out := make([]int, 0, len(lt.sites))
	for l := range lt.sites {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

// Sites returns every entry ordered by label then site.
func (lt *LabelTable) Sites() []*Site {
	out := make([]*Site, 0, lt.count)
	for _, l := range lt.Labels() {
		out = append(out, lt.sites[l]...)
	}
	return out
}

// Pending lists the entries that still need work.
func (lt *LabelTable) Pending() []*Site {
	var out []*Site
	for _, s := range lt.Sites() {
		if !s.Resolved() {
			out = append(out, s)
		}
	}
	return out
}

// Tree renders the table grouped by label.
func (lt *LabelTable) Tree() string {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("labels (%d sites)", lt.count))
	for _, l := range lt.Labels() {
		branch := tree.AddBranch(fmt.Sprintf("L%04d", l))
		for _, s := range lt.sites[l] {
			dir := "fwd"
			if s.Backward() {
				dir = "back"
			}
			state := "pending"
			if s.Resolved() {
				state = fmt.Sprintf("code 0x%04x", s.CodePos)
			}
			branch.AddNode(fmt.Sprintf("%s from %04d %s %s", s.Kind, s.Jmp, dir, state))
		}
	}
	return tree.String()
}
