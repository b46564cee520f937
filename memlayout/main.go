// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// memlayout computes the memory layout of a dual-core ESP32-S3 firmware
// image and emits it for the link step and the startup code.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/usbarmory/memlayout/memlayout/cmd"
	"github.com/usbarmory/memlayout/memlayout/internal"
	"github.com/usbarmory/memlayout/util"
)

type hookFlags struct{}

func (hookFlags) String() string {
	return strings.Join(internal.Default.Overrides, ",")
}

func (hookFlags) Set(s string) error {
	return internal.Default.AddHook(s)
}

var (
	configPath  string
	sizesPath   string
	elfPath     string
	regionsPath string
	outputPath  string
	verbose     bool
)

func init() {
	log.SetFlags(0)
	log.SetPrefix("memlayout: ")
	log.SetOutput(io.Discard)

	flag.StringVar(&configPath, "config", "", "JSON layout configuration")
	flag.StringVar(&sizesPath, "sizes", "", "JSON section sizes")
	flag.StringVar(&elfPath, "elf", "", "application ELF image (section sizes and hook symbols)")
	flag.StringVar(&regionsPath, "regions", "", "JSON region map, registered as revision \""+internal.Custom+"\" when unnamed")
	flag.StringVar(&outputPath, "o", "", "output file (default stdout)")
	flag.BoolVar(&verbose, "v", false, "verbose log")
	flag.Var(hookFlags{}, "hook", "startup hook override as name=symbol (repeatable)")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: memlayout [flags] <command>\n\n")
		flag.PrintDefaults()
		fmt.Fprintf(flag.CommandLine.Output(), "\ncommands:\n%s", cmd.Help(util.NewTerminal(io.Discard, false)))
	}
}

func load() (err error) {
	in := internal.Default

	if configPath != "" {
		if err = in.LoadConfig(configPath); err != nil {
			return
		}
	}

	if elfPath != "" {
		if err = in.LoadELF(elfPath); err != nil {
			return
		}
	}

	// explicit sizes take precedence over the ELF ones
	if sizesPath != "" {
		if err = in.LoadSizes(sizesPath); err != nil {
			return
		}
	}

	if regionsPath != "" {
		if _, err = internal.LoadRegions(regionsPath); err != nil {
			return
		}
	}

	return
}

func run(line string) (err error) {
	if err = load(); err != nil {
		return
	}

	out := os.Stdout

	if outputPath != "" {
		if out, err = os.Create(outputPath); err != nil {
			return
		}
		defer out.Close()
	}

	t := util.NewTerminal(out, util.IsTerminal(out))
	res, err := cmd.Handle(t, line)

	fmt.Fprint(out, res)

	return
}

func main() {
	flag.Parse()

	if verbose {
		log.SetOutput(os.Stderr)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(strings.Join(flag.Args(), " ")); err != nil {
		fmt.Fprintf(os.Stderr, "memlayout: %v\n", err)
		os.Exit(1)
	}
}
