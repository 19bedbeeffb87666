// Package window runs a game loop inside an ebiten window.
package window

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"github.com/gafferongames/cubes/internal/game"
	"github.com/gafferongames/cubes/internal/state"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	width  = 1000
	height = 500

	// pixels per world unit
	scale    = 40
	cubeSize = 24
)

var (
	background = color.White
	inactive   = color.Gray{Y: 0xc0}
	cubeColor  = color.RGBA{R: 0x20, G: 0x60, B: 0xd0, A: 0xff}
)

type Window struct {
	ctx  context.Context
	loop *game.Loop
	err  error
}

var _ ebiten.Game = (*Window)(nil)

func New(ctx context.Context, loop *game.Loop) *Window {
	return &Window{
		ctx:  ctx,
		loop: loop,
		err:  nil,
	}
}

// Run opens the window and blocks until it is closed, ctx is done or the
// session ends.
func (w *Window) Run(frameRate int) error {
	ebiten.SetWindowTitle("Client")
	ebiten.SetWindowSize(width, height)
	ebiten.SetTPS(frameRate)

	err := ebiten.RunGame(w)
	if w.err != nil {
		return w.err
	}
	return err
}

func SampleInput() state.Input {
	return state.Input{
		Left:  ebiten.IsKeyPressed(ebiten.KeyArrowLeft),
		Right: ebiten.IsKeyPressed(ebiten.KeyArrowRight),
		Up:    ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		Down:  ebiten.IsKeyPressed(ebiten.KeyArrowDown),
		Push:  ebiten.IsKeyPressed(ebiten.KeySpace),
		Pull:  ebiten.IsKeyPressed(ebiten.KeyZ),
	}
}

func (w *Window) Update() error {
	if w.ctx.Err() != nil {
		return ebiten.Termination
	}

	err := w.loop.Frame(time.Now(), SampleInput())
	if err != nil {
		w.err = err
		return ebiten.Termination
	}
	return nil
}

func (w *Window) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	c := w.loop.Client()
	st := c.Status()
	ebitenutil.DebugPrint(screen, fmt.Sprintf("%s\ntick %d (server %d)\nack %d",
		st.State, st.ClientTick, st.ServerTick, st.InputAck))

	clr := color.Color(cubeColor)
	if !c.Active() {
		clr = inactive
	}

	// the cube grows as it comes closer along z
	body := w.loop.World().Body()
	size := float32(cubeSize) / max(0.25, 1-body.Position.Z/10)
	x := width/2 + body.Position.X*scale - size/2
	y := height/2 + body.Position.Y*scale - size/2
	vector.DrawFilledRect(screen, x, y, size, size, clr, true)
}

func (w *Window) Layout(int, int) (int, int) {
	return width, height
}
