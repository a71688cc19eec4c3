package gesture

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotationTracker_ZeroValueIsIdle(t *testing.T) {
	var r RotationTracker
	assert.False(t, r.Rotating())
	_, ok := r.Anchor()
	assert.False(t, ok)
}

func TestRotationTracker_EntryFrameSetsAnchorOnly(t *testing.T) {
	var r RotationTracker
	r, delta := r.Drag(mgl64.Vec2{0.5, 0.5})

	assert.True(t, r.Rotating())
	assert.Equal(t, mgl64.Vec2{}, delta)

	anchor, ok := r.Anchor()
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec2{0.5, 0.5}, anchor)
}

func TestRotationTracker_IncrementalDrag(t *testing.T) {
	var r RotationTracker
	r, _ = r.Drag(mgl64.Vec2{0.5, 0.5})

	r, delta := r.Drag(mgl64.Vec2{0.6, 0.5})
	assert.InDelta(t, 12.0, delta.Y(), 1e-9)
	assert.InDelta(t, 0.0, delta.X(), 1e-12)

	// Relative to the new anchor, not the drag start.
	r, delta = r.Drag(mgl64.Vec2{0.7, 0.5})
	assert.InDelta(t, 12.0, delta.Y(), 1e-9)

	// Moving the wrist down (larger y) tilts angle_x negative.
	r, delta = r.Drag(mgl64.Vec2{0.7, 0.6})
	assert.InDelta(t, -12.0, delta.X(), 1e-9)
	assert.InDelta(t, 0.0, delta.Y(), 1e-12)

	anchor, _ := r.Anchor()
	assert.Equal(t, mgl64.Vec2{0.7, 0.6}, anchor)
}

func TestRotationTracker_Release(t *testing.T) {
	var r RotationTracker
	r, _ = r.Drag(mgl64.Vec2{0.5, 0.5})
	r = r.Release()

	assert.False(t, r.Rotating())
	_, ok := r.Anchor()
	assert.False(t, ok)

	// Re-entering after release is an entry frame again.
	r, delta := r.Drag(mgl64.Vec2{0.9, 0.9})
	assert.Equal(t, mgl64.Vec2{}, delta)
	assert.True(t, r.Rotating())
}

func TestRotationTracker_CopiesDoNotShareAnchor(t *testing.T) {
	var r RotationTracker
	r, _ = r.Drag(mgl64.Vec2{0.1, 0.1})
	saved := r

	r, _ = r.Drag(mgl64.Vec2{0.4, 0.4})

	anchor, _ := saved.Anchor()
	assert.Equal(t, mgl64.Vec2{0.1, 0.1}, anchor)
}
