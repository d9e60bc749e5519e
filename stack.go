package layerlab

import (
	"image"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Stack is an ordered set of layers. Index 0 is painted first (bottom),
// the last index is painted last (top).
//
// Add, Remove, DeleteSelected push a copy of the whole sequence onto the
// undo history first. SetLayers and Clear drop the history. Geometry edits (MoveSelected, ResizeSelected) are
// not undoable, otherwise every drag sample would land in the history.
//
// All methods are safe for concurrent use. Render and Score should be
// handed the copy returned by Layers.
type Stack struct {
	mu       sync.Mutex
	layers   []Layer
	selected int // -1 when nothing is selected
	history  [][]Layer
	log      *zap.Logger
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{selected: -1, log: zap.NewNop()}
}

// SetLogger sets the logger used for debug output. nil disables logging.
func (s *Stack) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	s.mu.Lock()
	s.log = l
	s.mu.Unlock()
}

// snapshot must be called with s.mu held.
func (s *Stack) snapshot() {
	s.history = append(s.history, slices.Clone(s.layers))
}

// Add places l on top of the stack.
func (s *Stack) Add(l Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot()
	s.layers = append(s.layers, l)
	s.log.Debug("layer added", zap.Int("index", len(s.layers)-1), zap.Stringer("layer", l))
}

// Remove deletes the layer at index. Out of range indices are ignored.
// If the selected layer is removed the selection is cleared; if a layer
// below it is removed the selection follows its layer down one slot.
func (s *Stack) Remove(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.layers) {
		s.log.Debug("remove ignored", zap.Int("index", index), zap.Int("len", len(s.layers)))
		return
	}
	s.snapshot()
	s.removeLocked(index)
}

func (s *Stack) removeLocked(index int) {
	s.layers = slices.Delete(s.layers, index, index+1)
	switch {
	case s.selected == index:
		s.selected = -1
	case s.selected > index:
		s.selected--
	}
	s.log.Debug("layer removed", zap.Int("index", index), zap.Int("selected", s.selected))
}

// DeleteSelected removes the selected layer, if any, and clears the
// selection.
func (s *Stack) DeleteSelected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected < 0 {
		return
	}
	s.snapshot()
	s.removeLocked(s.selected)
	s.selected = -1
}

// Undo restores the sequence saved before the last structural change and
// clears the selection. There is no redo.
func (s *Stack) Undo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.history)
	if n == 0 {
		s.log.Debug("undo ignored: empty history")
		return
	}
	s.layers = s.history[n-1]
	s.history[n-1] = nil
	s.history = s.history[:n-1]
	s.selected = -1
	s.log.Debug("undo", zap.Int("len", len(s.layers)), zap.Int("depth", len(s.history)))
}

// CanUndo reports whether Undo would change anything.
func (s *Stack) CanUndo() bool {
	return s.UndoDepth() > 0
}

// UndoDepth returns the number of snapshots in the history.
func (s *Stack) UndoDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Select selects the layer at index. Out of range indices are ignored.
func (s *Stack) Select(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index >= 0 && index < len(s.layers) {
		s.selected = index
	}
}

// SelectAt selects the topmost layer containing p, or clears the selection
// when p hits no layer.
func (s *Stack) SelectAt(p image.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = -1
	for i := len(s.layers) - 1; i >= 0; i-- {
		if s.layers[i].Rect.Contains(p) {
			s.selected = i
			return
		}
	}
}

// Deselect clears the selection.
func (s *Stack) Deselect() {
	s.mu.Lock()
	s.selected = -1
	s.mu.Unlock()
}

// SelectedIndex returns the selected index, or -1.
func (s *Stack) SelectedIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Selected returns a copy of the selected layer.
func (s *Stack) Selected() (Layer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected < 0 {
		return Layer{}, false
	}
	return s.layers[s.selected], true
}

// MoveSelected translates the selected layer.
func (s *Stack) MoveSelected(dx, dy int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected < 0 {
		return
	}
	s.layers[s.selected].Move(dx, dy)
}

// ResizeSelected drags corner h of the selected layer by (dx, dy).
func (s *Stack) ResizeSelected(h Handle, dx, dy int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected < 0 {
		return
	}
	s.layers[s.selected].Resize(h, dx, dy)
}

// HandleAt returns the corner handle of the selected layer under p.
func (s *Stack) HandleAt(p image.Point) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected < 0 {
		return HandleNone
	}
	return s.layers[s.selected].HandleAt(p)
}

// SetLayers replaces the whole sequence with a copy of layers. Used when
// loading a drawing: it starts a new history, so Undo cannot reach the
// drawing that was replaced.
func (s *Stack) SetLayers(layers []Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = slices.Clone(layers)
	s.selected = -1
	s.history = nil
	s.log.Debug("layers replaced", zap.Int("len", len(s.layers)))
}

// Clear removes every layer, the selection and the undo history.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = nil
	s.selected = -1
	s.history = nil
}

// Layers returns a copy of the current sequence, bottom first.
func (s *Stack) Layers() []Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.layers)
}

// Len returns the number of layers.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.layers)
}
