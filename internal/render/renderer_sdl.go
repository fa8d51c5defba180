//go:build sdl

package render

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
)

type sdlState struct {
	window      *sdl.Window
	renderer    *sdl.Renderer
	texture     *sdl.Texture
	pixels      []byte
	width       int
	height      int
	pitch       int
	windowTitle string
}

// SupportsSDL reports whether the binary was built with the sdl tag.
func SupportsSDL() bool { return true }

func (r *Renderer) initSDL() error {
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return err
	}
	r.sdl = &sdlState{}
	r.backend = BackendSDL
	r.useANSI = false
	return nil
}

func (r *Renderer) ensureSDLResources() error {
	state := r.sdl
	if state == nil {
		return fmt.Errorf("SDL backend not initialized")
	}
	if state.window == nil {
		window, err := sdl.CreateWindow(
			"chromafield",
			sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
			int32(r.width), int32(r.height),
			sdl.WINDOW_SHOWN,
		)
		if err != nil {
			return err
		}
		state.window = window
	}
	if state.renderer == nil {
		renderer, err := sdl.CreateRenderer(state.window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
		if err != nil {
			return err
		}
		state.renderer = renderer
	}
	if state.texture == nil || state.width != r.width || state.height != r.height {
		if state.texture != nil {
			state.texture.Destroy()
		}
		_ = state.renderer.SetLogicalSize(int32(r.width), int32(r.height))
		tex, err := state.renderer.CreateTexture(
			sdl.PIXELFORMAT_ABGR8888,
			sdl.TEXTUREACCESS_STREAMING,
			int32(r.width), int32(r.height),
		)
		if err != nil {
			return err
		}
		state.texture = tex
		state.width = r.width
		state.height = r.height
		state.pitch = r.width * 4
		state.pixels = make([]byte, state.pitch*r.height)
	}
	return nil
}

func (r *Renderer) renderSDL(fp frameParams, status string) Output {
	if err := r.ensureSDLResources(); err != nil {
		return Output{
			Status:  fmt.Sprintf("SDL init error: %v", err),
			Present: func(string) error { return err },
		}
	}
	state := r.sdl

	r.forEachRow(func(y int) {
		row := state.pixels[y*state.pitch:]
		vy := r.yCoords[y]
		for x := 0; x < r.width; x++ {
			_, c := r.shade(r.xCoords[x], vy, fp)
			px := row[x*4:]
			px[0] = byte(clampFloat(c.R*255, 0, 255))
			px[1] = byte(clampFloat(c.G*255, 0, 255))
			px[2] = byte(clampFloat(c.B*255, 0, 255))
			px[3] = 255
		}
	})

	return Output{
		Status: status,
		Present: func(status string) error {
			if status != "" && status != state.windowTitle {
				state.window.SetTitle(status)
				state.windowTitle = status
			}
			if err := state.texture.Update(nil, state.pixels, state.pitch); err != nil {
				return err
			}
			if err := state.renderer.Clear(); err != nil {
				return err
			}
			if err := state.renderer.Copy(state.texture, nil, nil); err != nil {
				return err
			}
			state.renderer.Present()
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				if _, ok := event.(*sdl.QuitEvent); ok {
					return ErrRendererQuit
				}
			}
			return nil
		},
	}
}

func (r *Renderer) resizeSDL() {
	if r.sdl == nil {
		return
	}
	r.sdl.width = 0
	r.sdl.height = 0
}

func (r *Renderer) closeSDL() error {
	state := r.sdl
	if state == nil {
		return nil
	}
	if state.texture != nil {
		state.texture.Destroy()
	}
	if state.renderer != nil {
		state.renderer.Destroy()
	}
	if state.window != nil {
		state.window.Destroy()
	}
	sdl.QuitSubSystem(sdl.INIT_VIDEO)
	r.sdl = nil
	return nil
}
