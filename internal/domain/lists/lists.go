// Package lists is a small world of numbered items kept in one ordered list.
// It is the reference domain for the command line and the MCP server.
package lists

import (
	"worldgraph/internal/entity"
)

// Name is the domain name used in worldgraph.yaml.
const Name = "lists"

// Number is one item of a list.
type Number struct {
	entity.Node
	Value int `world:"value" hints:"number"`
}

// List is an ordered sequence of numbers. The same Number may appear only
// once; operations keep that invariant.
type List struct {
	entity.Node
	Items []*Number `world:"items" hints:"ordered"`
}

// Board is the root of a lists world. Pinned may name any number, whether
// or not it is still in the list.
type Board struct {
	entity.RootNode
	Title  string  `world:"title" hints:"name"`
	List   *List   `world:"list"`
	Pinned *Number `world:"pinned"`
}

// Values returns the item values in list order.
func (l *List) Values() []int {
	out := make([]int, 0, len(l.Items))
	for _, n := range l.Items {
		out = append(out, n.Value)
	}
	return out
}

func (l *List) indexOf(n *Number) int {
	for i, item := range l.Items {
		if item == n {
			return i
		}
	}
	return -1
}

// Remove deletes every number of set from the list, keeping the order of the
// remaining items.
func (l *List) Remove(set []*Number) error {
	if len(set) == 0 {
		return entity.Invalid("remove needs at least one item")
	}
	drop := make(map[*Number]struct{}, len(set))
	for _, n := range set {
		if l.indexOf(n) < 0 {
			return entity.Invalid("item %d is not in the list", n.Value)
		}
		drop[n] = struct{}{}
	}
	kept := make([]*Number, 0, len(l.Items))
	for _, item := range l.Items {
		if _, ok := drop[item]; !ok {
			kept = append(kept, item)
		}
	}
	l.Items = kept
	return nil
}

// MoveToBeginning moves n in front of every other item.
func (l *List) MoveToBeginning(n *Number) error {
	i := l.indexOf(n)
	if i < 0 {
		return entity.Invalid("item %d is not in the list", n.Value)
	}
	items := make([]*Number, 0, len(l.Items))
	items = append(items, n)
	items = append(items, l.Items[:i]...)
	items = append(items, l.Items[i+1:]...)
	l.Items = items
	return nil
}

// MoveToEnd moves n behind every other item.
func (l *List) MoveToEnd(n *Number) error {
	i := l.indexOf(n)
	if i < 0 {
		return entity.Invalid("item %d is not in the list", n.Value)
	}
	items := make([]*Number, 0, len(l.Items))
	items = append(items, l.Items[:i]...)
	items = append(items, l.Items[i+1:]...)
	items = append(items, n)
	l.Items = items
	return nil
}

// Append adds a new number at the end of the list.
func (l *List) Append(value int) {
	l.Items = append(l.Items, &Number{Value: value})
}

// Rename changes the board title.
func (b *Board) Rename(title string) error {
	if title == "" {
		return entity.Invalid("title must not be empty")
	}
	b.Title = title
	return nil
}

// Pin marks n as the pinned number.
func (b *Board) Pin(n *Number) {
	b.Pinned = n
}

// NewUniverse registers the lists types and operations on a fresh universe.
func NewUniverse() *entity.Universe {
	u := entity.NewUniverse()
	u.MustRegister(&Board{}, entity.TypeHints("root"))
	u.MustRegister(&List{}, entity.TypeHints("collection"))
	u.MustRegister(&Number{}, entity.TypeHints("element"))

	u.MustExpose("remove", (*List).Remove, entity.OpHints("delete", "set"))
	u.MustExpose("moveToBeginning", (*List).MoveToBeginning, entity.OpHints("reorder", "front"))
	u.MustExpose("moveToEnd", (*List).MoveToEnd, entity.OpHints("reorder", "back"))
	u.MustExpose("append", (*List).Append, entity.OpHints("insert"))
	u.MustExpose("rename", (*Board).Rename, entity.OpHints("edit"))
	u.MustExpose("pin", (*Board).Pin, entity.OpHints("mark"))
	return u
}

// NewDomain describes a fresh lists universe. ids overrides the default short
// ids, keyed by operation key.
func NewDomain(ids map[string]string) (*entity.Domain, error) {
	return entity.NewDomain(Name, NewUniverse(), ids)
}

// NewWorld builds a board holding one list with the given values in order.
func NewWorld(values ...int) *Board {
	l := &List{Items: make([]*Number, 0, len(values))}
	for _, v := range values {
		l.Items = append(l.Items, &Number{Value: v})
	}
	return &Board{Title: "numbers", List: l}
}
