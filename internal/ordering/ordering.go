// Package ordering computes order values for the items of a list.
//
// Every reorder is a full relabel: the moved sequence is renumbered
// 0..n-1 and the complete id→order map is sent to the backend. Both the
// move-mode and the single-step up/down affordances go through
// ComputeReorder.
package ordering

import (
	"fmt"
	"sort"

	"github.com/nhle/todosync/internal/model"
)

// Move places one item at a target index of the sorted sequence.
type Move struct {
	ItemID  string
	ToIndex int
}

// Plan is the outcome of a reorder computation.
type Plan struct {
	// Items is the new sequence with Order already relabeled.
	Items []model.TodoItem

	// Orders is the request payload: every item id to its new order.
	Orders map[string]int

	// Changed is false for no-op moves. No request may be sent then.
	Changed bool
}

// Sorted returns a copy of items sorted ascending by Order. Ties keep
// their relative position, then fall back to id so the result is stable
// across fetches.
func Sorted(items []model.TodoItem) []model.TodoItem {
	out := model.CloneItems(items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// IndexOf returns the position of id in the sorted sequence, or -1.
func IndexOf(items []model.TodoItem, id string) int {
	for i, it := range Sorted(items) {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// ComputeReorder applies mv to items and relabels every order value.
func ComputeReorder(items []model.TodoItem, mv Move) (Plan, error) {
	seq := Sorted(items)

	from := -1
	for i, it := range seq {
		if it.ID == mv.ItemID {
			from = i
			break
		}
	}
	if from < 0 {
		return Plan{}, fmt.Errorf("item %s is not in the list", mv.ItemID)
	}

	to := mv.ToIndex
	if to < 0 {
		to = 0
	}
	if to > len(seq)-1 {
		to = len(seq) - 1
	}

	if len(seq) < 2 || to == from {
		return Plan{Items: seq, Orders: orderMap(seq), Changed: false}, nil
	}

	moved := seq[from]
	rest := append(seq[:from:from], seq[from+1:]...)

	next := make([]model.TodoItem, 0, len(seq))
	next = append(next, rest[:to]...)
	next = append(next, moved)
	next = append(next, rest[to:]...)

	for i := range next {
		next[i].Order = i
	}

	return Plan{Items: next, Orders: orderMap(next), Changed: true}, nil
}

// MoveUp moves an item one position toward the top. Moving the first
// item up is a no-op.
func MoveUp(items []model.TodoItem, id string) (Plan, error) {
	idx := IndexOf(items, id)
	if idx < 0 {
		return Plan{}, fmt.Errorf("item %s is not in the list", id)
	}
	if idx == 0 {
		return Plan{Items: Sorted(items), Orders: orderMap(Sorted(items))}, nil
	}
	return ComputeReorder(items, Move{ItemID: id, ToIndex: idx - 1})
}

// MoveDown moves an item one position toward the bottom. Moving the last
// item down is a no-op.
func MoveDown(items []model.TodoItem, id string) (Plan, error) {
	idx := IndexOf(items, id)
	if idx < 0 {
		return Plan{}, fmt.Errorf("item %s is not in the list", id)
	}
	if idx == len(items)-1 {
		return Plan{Items: Sorted(items), Orders: orderMap(Sorted(items))}, nil
	}
	return ComputeReorder(items, Move{ItemID: id, ToIndex: idx + 1})
}

// CanMoveUp reports whether an up control should be offered for id.
func CanMoveUp(items []model.TodoItem, id string) bool {
	return len(items) > 1 && IndexOf(items, id) > 0
}

// CanMoveDown reports whether a down control should be offered for id.
func CanMoveDown(items []model.TodoItem, id string) bool {
	idx := IndexOf(items, id)
	return len(items) > 1 && idx >= 0 && idx < len(items)-1
}

// NextOrder returns the order for an item appended to items: the current
// maximum plus one, or 0 for an empty list.
func NextOrder(items []model.TodoItem) int {
	if len(items) == 0 {
		return 0
	}
	max := items[0].Order
	for _, it := range items[1:] {
		if it.Order > max {
			max = it.Order
		}
	}
	return max + 1
}

// IsDense reports whether the order values are exactly {0, ..., n-1}.
func IsDense(items []model.TodoItem) bool {
	seen := make([]bool, len(items))
	for _, it := range items {
		if it.Order < 0 || it.Order >= len(items) || seen[it.Order] {
			return false
		}
		seen[it.Order] = true
	}
	return true
}

// Apply assigns the orders of a plan onto items and returns them sorted.
// Items missing from orders keep their value.
func Apply(items []model.TodoItem, orders map[string]int) []model.TodoItem {
	out := model.CloneItems(items)
	for i := range out {
		if o, ok := orders[out[i].ID]; ok {
			out[i].Order = o
		}
	}
	return Sorted(out)
}

func orderMap(seq []model.TodoItem) map[string]int {
	m := make(map[string]int, len(seq))
	for _, it := range seq {
		m[it.ID] = it.Order
	}
	return m
}
