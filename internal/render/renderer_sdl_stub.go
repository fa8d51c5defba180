//go:build !sdl

package render

import "errors"

type sdlState struct{}

// SupportsSDL reports whether the binary was built with the sdl tag.
func SupportsSDL() bool { return false }

func (r *Renderer) initSDL() error {
	return errors.New("SDL backend not enabled; rebuild with -tags sdl")
}

func (r *Renderer) renderSDL(_ frameParams, status string) Output {
	return Output{
		Status:  status,
		Present: func(string) error { return ErrRendererQuit },
	}
}

func (r *Renderer) resizeSDL() {}

func (r *Renderer) closeSDL() error { return nil }
