package main

import (
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

func findCommand(cmds []*cli.Command, path ...string) *cli.Command {
	for _, c := range cmds {
		if c.Name != path[0] {
			continue
		}
		if len(path) == 1 {
			return c
		}
		return findCommand(c.Subcommands, path[1:]...)
	}
	return nil
}

func TestWritingCommandsWarnAboutLiveServer(t *testing.T) {
	app := newCLI()
	tests := [][]string{
		{"ingest"},
		{"clear"},
		{"drive", "import"},
		{"archive", "replay"},
	}
	for _, path := range tests {
		name := strings.Join(path, " ")
		t.Run(name, func(t *testing.T) {
			cmd := findCommand(app.Commands, path...)
			if cmd == nil {
				t.Fatalf("command %q not found", name)
			}
			if cmd.Description != offlineOnly {
				t.Fatalf("command %q lacks the live server warning: %q", name, cmd.Description)
			}
		})
	}

	for _, path := range [][]string{{"drive", "ls"}, {"archive", "ls"}} {
		if cmd := findCommand(app.Commands, path...); cmd == nil || cmd.Description != "" {
			t.Fatalf("read-only command %v should carry no warning", path)
		}
	}
}
