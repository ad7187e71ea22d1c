package fiber

import (
	"errors"
	"fmt"
)

var (
	// ErrHookOutsideRender is raised when a hook is called without an active
	// function component render.
	ErrHookOutsideRender = errors.New("fiber: hook called outside of a function component render")
	// ErrHookMismatch is raised when a component calls a different number or
	// order of hooks than during its previous render.
	ErrHookMismatch = errors.New("fiber: hooks called in a different order than the previous render")
	// ErrRenderPanicked wraps any panic recovered from the render phase.
	ErrRenderPanicked     = errors.New("fiber: render panicked")
	ErrUnknownElementType = errors.New("fiber: unknown element type")
)

func recoveredError(sentinel error, r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return fmt.Errorf("%w: %v", sentinel, r)
}
