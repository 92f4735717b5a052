// Command gbplay is a thin Ebiten host shell around the core package: it
// owns the window, keyboard polling, ROM/battery file I/O, and the save
// tick, none of which the core touches itself (see core.Machine).
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/user-none/gbcore/core"
)

func main() {
	romPath := flag.String("rom", "", "path to a Game Boy ROM image")
	scale := flag.Int("scale", 3, "window scale factor")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("gbplay: -rom is required")
	}

	rom, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("gbplay: reading ROM: %v", err)
	}

	m, err := core.New(rom, nil)
	if err != nil {
		log.Fatalf("gbplay: loading ROM: %v", err)
	}

	savePath := batterySavePath(*romPath)
	if m.HasBattery() {
		if data, err := os.ReadFile(savePath); err == nil {
			if err := m.SetBatteryData(data); err != nil {
				log.Printf("gbplay: discarding save file %s: %v", savePath, err)
			}
		}
	}

	g := &game{machine: m, savePath: savePath}

	ebiten.SetWindowSize(core.ScreenWidth*(*scale), core.ScreenHeight*(*scale))
	ebiten.SetWindowTitle("gbplay — " + m.GetTitle())
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}

	g.saveBattery()
}

func batterySavePath(romPath string) string {
	ext := filepath.Ext(romPath)
	return strings.TrimSuffix(romPath, ext) + ".sav"
}
