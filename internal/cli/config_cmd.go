// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/voicechat/internal/config"
	"github.com/jeranaias/voicechat/internal/util"
)

// HandleConfig runs "voicechat config [show|path|init|get KEY]".
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "path", "init":
		// Neither needs a loadable config.
		return runConfig(nil, args, os.Stdout)
	}
	cfg, err := LoadConfig(args)
	if err != nil {
		return &ConfigError{Err: err}
	}
	return runConfig(cfg, args, os.Stdout)
}

func runConfig(cfg *config.Config, args Args, out io.Writer) error {
	switch args.Subcommand {
	case "show", "":
		return showConfig(cfg, args.JSON, out)

	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("config path", map[string]string{"path": path}, nil).Write(out)
		}
		fmt.Fprintln(out, path)
		return nil

	case "init":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		return initConfig(path, out)

	case "get":
		if args.Query == "" {
			return usageError(errors.New("config get needs a KEY"))
		}
		v, err := cfg.Get(args.Query)
		if errors.Is(err, config.ErrUnknownKey) {
			return usageError(err)
		}
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("config get", map[string]string{args.Query: v}, nil).Write(out)
		}
		fmt.Fprintln(out, v)
		return nil
	}
	return usageError(fmt.Errorf("unknown config subcommand %q (show, path, init, get)", args.Subcommand))
}

// showConfig lists every key. The API key is masked.
func showConfig(cfg *config.Config, asJSON bool, out io.Writer) error {
	values := make(map[string]string, len(config.Keys()))
	for _, k := range config.Keys() {
		v, err := cfg.Get(k)
		if err != nil {
			return err
		}
		values[k] = v
	}
	if asJSON {
		return NewJSONResponse("config", values, nil).Write(out)
	}
	for _, k := range config.Keys() {
		fmt.Fprintln(out, DimStyle.Render(util.PadRight(k, 28))+ValueStyle.Render(values[k]))
	}
	return nil
}

// initConfig writes the default config to path. An existing file is left
// alone.
func initConfig(path string, out io.Writer) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintln(out, SuccessStyle.Render("Wrote ")+path)
	return nil
}
