package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docsetbuilder/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Dir   string `arg:"" optional:"" type:"path" default:"." help:"Docset directory to initialize"`
	Force bool   `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, _ *CLI) error {
	p, err := config.Init(i.Dir, i.Force)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote configuration to %s\n", p)
	return nil
}
