package table

// TotalPages is max(1, ceil(total/pageSize)), where total is len(data) in
// uncontrolled mode and TotalItems in controlled mode.
func (m *Model[T]) TotalPages() int {
	total := m.totalItems()
	pages := (total + m.page.PageSize - 1) / m.page.PageSize
	return max(1, pages)
}

// CurrentPage returns the one-based page being shown.
func (m *Model[T]) CurrentPage() int {
	return m.page.CurrentPage
}

// HasPrev reports whether a previous page exists.
func (m *Model[T]) HasPrev() bool {
	return m.page.CurrentPage > 1
}

// HasNext reports whether a following page exists.
func (m *Model[T]) HasNext() bool {
	return m.page.CurrentPage < m.TotalPages()
}

// SetPage requests page n. Uncontrolled models move only when n is within
// [1, TotalPages] and report whether they moved. Controlled models forward n
// to OnPageChange unchanged and report true; the caller confirms the move
// with SetCurrentPage.
func (m *Model[T]) SetPage(n int) bool {
	if m.page.Controlled {
		m.onPageChange(n)
		return true
	}
	if n < 1 || n > m.TotalPages() || n == m.page.CurrentPage {
		return false
	}
	m.page.CurrentPage = n
	if m.onPageChange != nil {
		m.onPageChange(n)
	}
	return true
}

// NextPage requests the following page.
func (m *Model[T]) NextPage() bool {
	return m.SetPage(m.page.CurrentPage + 1)
}

// PrevPage requests the previous page.
func (m *Model[T]) PrevPage() bool {
	return m.SetPage(m.page.CurrentPage - 1)
}

// SetData replaces the rows. The active sort is kept and reapplied. The
// model stays on its page when it still exists and otherwise moves to the
// last page.
func (m *Model[T]) SetData(data []T) {
	m.data = append([]T(nil), data...)
	m.resort()
	m.clampPage()
}

// SetCurrentPage is the controlled-mode page update from the owner. The
// stored page is clamped to [1, TotalPages]. Uncontrolled models ignore it.
func (m *Model[T]) SetCurrentPage(n int) {
	if !m.page.Controlled {
		return
	}
	m.page.CurrentPage = n
	m.clampPage()
}

// SetTotalItems is the controlled-mode total update from the owner. Negative
// values are stored as 0, and a page past the new last page moves to it.
// Uncontrolled models ignore it.
func (m *Model[T]) SetTotalItems(n int) {
	if !m.page.Controlled {
		return
	}
	m.page.TotalItems = max(0, n)
	m.clampPage()
}

// clampPage keeps 1 <= CurrentPage <= TotalPages.
func (m *Model[T]) clampPage() {
	m.page.CurrentPage = min(max(1, m.page.CurrentPage), m.TotalPages())
}

// Rows returns the rows to display. Uncontrolled models slice the current
// page out of the sorted data; controlled models show all of it, since the
// owner already supplied a single page.
func (m *Model[T]) Rows() []T {
	if m.page.Controlled {
		return m.sorted
	}
	start := (m.page.CurrentPage - 1) * m.page.PageSize
	if start >= len(m.sorted) {
		return nil
	}
	end := min(start+m.page.PageSize, len(m.sorted))
	return m.sorted[start:end]
}

func (m *Model[T]) totalItems() int {
	if m.page.Controlled {
		return m.page.TotalItems
	}
	return len(m.data)
}
