//go:build ebiten

package main

import (
	"errors"
	"flag"
	"log"

	"snowgen/internal/app"
	"snowgen/internal/config"
	"snowgen/internal/crystal"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	run, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	run.Bind(flag.CommandLine)
	flag.Parse()

	factory := func() (*crystal.Lattice, error) {
		cfg, err := run.LatticeConfig()
		if err != nil {
			return nil, err
		}
		return crystal.New(cfg)
	}
	l, err := factory()
	if err != nil {
		log.Fatal(err)
	}

	game := app.New(l, factory, run.Scale)
	w, h := game.Layout(0, 0)

	ebiten.SetWindowTitle("snowgen")
	ebiten.SetTPS(run.TPS)
	ebiten.SetWindowSize(w, h)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
