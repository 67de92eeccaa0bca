// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
)

// Run executes cmd and returns the process exit code.
func Run(cmd Command, args Args) int {
	var err error
	switch cmd {
	case CmdTUI:
		err = HandleTUI(args)
	case CmdChat:
		err = HandleChat(args)
	case CmdAsk:
		err = HandleAsk(args)
	case CmdIdentity:
		err = HandleIdentity(args)
	case CmdHistory:
		err = HandleHistory(args)
	case CmdExport:
		err = HandleExport(args)
	case CmdConfig:
		err = HandleConfig(args)
	case CmdMockBackend:
		err = HandleMockBackend(args)
	case CmdVersion:
		fmt.Println(VersionString())
	case CmdHelp:
		if args.Err != nil {
			printError(args.Err)
			fmt.Fprintln(os.Stderr)
			fmt.Fprint(os.Stderr, usageText)
			return ExitUsageError
		}
		PrintUsage()
	}

	if err != nil {
		printError(err)
	}
	return ExitCode(err)
}
