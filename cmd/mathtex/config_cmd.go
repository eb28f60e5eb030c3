package main

import (
	"errors"
	"fmt"

	"github.com/alnah/go-mathtex/internal/config"
	flag "github.com/spf13/pflag"
)

// runConfigCmd prints the effective configuration (file plus MATHTEX_*
// overrides) as YAML. With --paths it lists where a name is searched.
func runConfigCmd(args []string, env *Environment) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	var configName string
	var paths bool
	fs.StringVarP(&configName, "config", "c", "", "config file name or path")
	fs.BoolVar(&paths, "paths", false, "list config search paths")
	fs.Usage = func() { printConfigUsage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	if paths {
		name := configName
		if name == "" {
			name = "mathtex"
		}
		for _, p := range config.SearchPaths(name) {
			fmt.Fprintln(env.Stdout, p)
		}
		return nil
	}

	cfg, _, err := loadSettings(configName)
	if err != nil {
		return err
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = env.Stdout.Write(data)
	return err
}
