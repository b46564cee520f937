// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"text/tabwriter"

	"golang.org/x/term"
)

// ErrUnknownCommand is returned for command lines matching no command.
var ErrUnknownCommand = errors.New("unknown command, type `help`")

// CmdFn represents a command handler.
type CmdFn func(term *term.Terminal, arg []string) (res string, err error)

// Cmd represents a command.
type Cmd struct {
	// Name is the command name
	Name string
	// Args is the number of arguments captured by Pattern
	Args int
	// Pattern matches the whole command line
	Pattern *regexp.Regexp
	// Syntax is the argument syntax shown in help
	Syntax string
	// Help is a one line description
	Help string
	// Fn is the command handler
	Fn CmdFn
}

var cmds = make(map[string]*Cmd)

// Add registers a command, commands without a pattern match their name
// alone.
func Add(cmd Cmd) {
	if cmd.Pattern == nil {
		cmd.Pattern = regexp.MustCompile(`^` + regexp.QuoteMeta(cmd.Name) + `$`)
	}

	cmds[cmd.Name] = &cmd
}

// Help returns the command list.
func Help(term *term.Terminal) string {
	var help bytes.Buffer
	var names []string

	t := tabwriter.NewWriter(&help, 16, 8, 0, '\t', tabwriter.TabIndent)

	for name := range cmds {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(t, "%s\t%s\t # %s\n", cmds[name].Name, cmds[name].Syntax, cmds[name].Help)
	}

	t.Flush()

	return string(term.Escape.Cyan) + help.String() + string(term.Escape.Reset)
}

// Handle executes the command matching line.
func Handle(term *term.Terminal, line string) (res string, err error) {
	for _, cmd := range cmds {
		m := cmd.Pattern.FindStringSubmatch(line)

		if len(m) == 0 || len(m)-1 != cmd.Args {
			continue
		}

		return cmd.Fn(term, m[1:])
	}

	return "", ErrUnknownCommand
}
