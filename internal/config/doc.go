// Package config loads the YAML configuration of the mathtex CLI.
//
// A config is found by path, or by name in the current directory and then
// in $XDG_CONFIG_HOME/go-mathtex/ (os.UserConfigDir). Unknown keys are
// rejected. Empty fields mean "use the library default".
package config
