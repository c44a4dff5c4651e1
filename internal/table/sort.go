package table

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"golang.org/x/text/collate"
)

// ToggleSort applies a header activation on key. A new key sorts ascending;
// the active key flips between ascending and descending. Unknown and
// non-sortable keys are ignored and report false.
func (m *Model[T]) ToggleSort(key string) bool {
	i, ok := m.byKey[key]
	if !ok || !m.columns[i].Sortable {
		return false
	}

	next := SortState{Key: key, Direction: Asc}
	if m.sort.Key == key && m.sort.Direction == Asc {
		next.Direction = Desc
	}
	m.applySort(next)
	return true
}

// SetSort applies an explicit sort, as parsed from a --sort flag.
func (m *Model[T]) SetSort(s SortState) bool {
	if !s.Active() {
		m.ResetSort()
		return true
	}
	i, ok := m.byKey[s.Key]
	if !ok || !m.columns[i].Sortable {
		return false
	}
	m.applySort(s)
	return true
}

// ResetSort clears the sort and restores the original data order.
func (m *Model[T]) ResetSort() {
	m.applySort(SortState{})
}

// Sort returns the active sort.
func (m *Model[T]) Sort() SortState {
	return m.sort
}

func (m *Model[T]) applySort(s SortState) {
	m.sort = s
	m.resort()
	if m.onSortChange != nil {
		m.onSortChange(s)
	}
}

type keyedRow[T any] struct {
	row T
	key any
}

// resort rebuilds the sorted view from the full data set.
func (m *Model[T]) resort() {
	if !m.sort.Active() {
		m.sorted = append([]T(nil), m.data...)
		return
	}

	value := m.columns[m.byKey[m.sort.Key]].Value
	rows := make([]keyedRow[T], len(m.data))
	for i, row := range m.data {
		rows[i] = keyedRow[T]{row: row, key: value(row)}
	}

	desc := m.sort.Direction == Desc
	sort.SliceStable(rows, func(i, j int) bool {
		// Swapping keeps equal rows in input order for both directions.
		if desc {
			i, j = j, i
		}
		return Compare(m.collator, rows[i].key, rows[j].key) < 0
	})

	m.sorted = make([]T, len(rows))
	for i, r := range rows {
		m.sorted[i] = r.row
	}
}

// Compare orders two cell values. Two numbers compare numerically, with NaN
// after every other number; anything else compares as Stringify output under
// the collator. A nil collator falls
// back to byte order.
func Compare(c *collate.Collator, a, b any) int {
	fa, aNum := number(a)
	fb, bNum := number(b)
	if aNum && bNum {
		aNaN, bNaN := math.IsNaN(fa), math.IsNaN(fb)
		switch {
		case aNaN && bNaN:
			return 0
		case aNaN:
			return 1
		case bNaN:
			return -1
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}

	sa, sb := Stringify(a), Stringify(b)
	if c == nil {
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		default:
			return 0
		}
	}
	return c.CompareString(sa, sb)
}

// Stringify renders a cell value: nil is empty, floats drop trailing zeros,
// Stringers use String.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case fmt.Stringer:
		return val.String()
	case error:
		return val.Error()
	default:
		return fmt.Sprint(v)
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
