// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/usbarmory/memlayout/linker"
	"github.com/usbarmory/memlayout/mem"
	"github.com/usbarmory/memlayout/memlayout/internal"
	"github.com/usbarmory/memlayout/util"
)

func init() {
	Add(Cmd{
		Name: "check",
		Help: "compute all revisions",
		Fn:   checkCmd,
	})
}

type result struct {
	digest string
	err    error
}

func checkCmd(term *term.Terminal, _ []string) (res string, err error) {
	var g errgroup.Group
	var buf bytes.Buffer

	revs := mem.Revisions()
	results := make([]result, len(revs))

	for i, rev := range revs {
		i, rev := i, rev

		g.Go(func() error {
			l, _, err := internal.Default.Compute(rev)

			if err == nil {
				results[i].digest, err = linker.Digest(l)
			}

			results[i].err = err

			return err
		})
	}

	// every revision is reported, the first failure is returned
	err = g.Wait()

	t := tabwriter.NewWriter(&buf, 0, 8, 2, ' ', 0)

	for i, rev := range revs {
		detail := results[i].digest

		if results[i].err != nil {
			detail = results[i].err.Error()
		}

		fmt.Fprintf(t, "%s\t%s\t%s\n", rev, util.Status(term, results[i].err), detail)
	}

	t.Flush()

	if err != nil {
		return buf.String(), fmt.Errorf("layout check failed, %v", err)
	}

	return buf.String(), nil
}
