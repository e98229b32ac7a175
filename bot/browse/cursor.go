package browse

import (
	"github.com/google/uuid"

	"github.com/m3rciful/delofix/core/telegram/state"
)

// Session field keys of a browse cursor.
const (
	FieldSearchID     = "search_id"
	FieldFoundTasks   = "found_tasks"
	FieldCurrentIndex = "current_index"
)

// Cursor is a forward-only position in a search result.
type Cursor struct {
	SearchID string
	IDs      []int64
	Index    int
}

// NewCursor starts a fresh cursor at the first id.
func NewCursor(ids []int64) Cursor {
	return Cursor{SearchID: uuid.NewString(), IDs: append([]int64(nil), ids...)}
}

// Current returns the id under the cursor.
func (c Cursor) Current() (int64, bool) {
	if c.Index < 0 || c.Index >= len(c.IDs) {
		return 0, false
	}
	return c.IDs[c.Index], true
}

// Next moves forward and reports false, without moving, at the last id.
func (c *Cursor) Next() bool {
	if c.Index+1 >= len(c.IDs) {
		return false
	}
	c.Index++
	return true
}

// Store writes the cursor into session fields.
func (c Cursor) Store(f *state.Fields) {
	f.Set(FieldSearchID, c.SearchID)
	f.Set(FieldFoundTasks, c.IDs)
	f.Set(FieldCurrentIndex, c.Index)
}

// LoadCursor reads a cursor back from session fields.
func LoadCursor(f *state.Fields) (Cursor, bool) {
	ids, ok := f.Int64s(FieldFoundTasks)
	if !ok {
		return Cursor{}, false
	}
	idx, ok := f.Int(FieldCurrentIndex)
	if !ok {
		return Cursor{}, false
	}
	id, _ := f.String(FieldSearchID)
	return Cursor{SearchID: id, IDs: ids, Index: idx}, true
}
