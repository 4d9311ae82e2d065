// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/transbot.go/pkg/cli/cmds/transbot"
)
