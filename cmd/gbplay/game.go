package main

import (
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/user-none/gbcore/core"
)

// game adapts core.Machine to the ebiten.Game interface: it polls the
// keyboard once per Update, runs ticks until a frame is ready, blits the
// RGBA framebuffer, and persists the battery file when it goes dirty.
type game struct {
	machine  *core.Machine
	savePath string

	offscreen *ebiten.Image
	pixels    [core.ScreenWidth * core.ScreenHeight * 4]byte
}

var keymap = [...]struct {
	key    ebiten.Key
	button core.Button
}{
	{ebiten.KeyZ, core.ButtonA},
	{ebiten.KeyX, core.ButtonB},
	{ebiten.KeyBackspace, core.ButtonSelect},
	{ebiten.KeyEnter, core.ButtonStart},
	{ebiten.KeyArrowRight, core.ButtonRight},
	{ebiten.KeyArrowLeft, core.ButtonLeft},
	{ebiten.KeyArrowUp, core.ButtonUp},
	{ebiten.KeyArrowDown, core.ButtonDown},
}

func (g *game) pollInput() {
	for _, k := range keymap {
		g.machine.PressButton(k.button, ebiten.IsKeyPressed(k.key))
	}
}

func (g *game) Update() error {
	g.pollInput()
	for !g.machine.Tick() {
	}
	g.saveBattery()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.offscreen == nil {
		g.offscreen = ebiten.NewImage(core.ScreenWidth, core.ScreenHeight)
	}
	copy(g.pixels[:], g.machine.Render())
	g.offscreen.WritePixels(g.pixels[:])

	opts := &ebiten.DrawImageOptions{}
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	opts.GeoM.Scale(float64(sw)/core.ScreenWidth, float64(sh)/core.ScreenHeight)
	opts.Filter = ebiten.FilterNearest
	screen.DrawImage(g.offscreen, opts)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// saveBattery persists external cartridge RAM to disk whenever the core
// reports it dirty, mirroring the host-side responsibility spec.md §6
// assigns outside the core (the core never touches the file system).
func (g *game) saveBattery() {
	if !g.machine.HasBattery() || !g.machine.IsBatteryDirty() {
		return
	}
	if err := os.WriteFile(g.savePath, g.machine.GetBatteryData(), 0o644); err != nil {
		log.Printf("gbplay: saving battery to %s: %v", g.savePath, err)
		return
	}
	g.machine.CleanBattery()
}
