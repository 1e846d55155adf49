// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/kraklabs/siginspect/internal/output"
	"github.com/kraklabs/siginspect/internal/ui"
	"github.com/kraklabs/siginspect/pkg/pysource"
)

// returnSlot names the return annotation in AnnotationEntry.
const returnSlot = "return"

// AnnotationEntry is one annotated parameter, or the return annotation.
type AnnotationEntry struct {
	Parameter               string `json:"parameter" yaml:"parameter"`
	pysource.AnnotationInfo `yaml:",inline"`
}

func runAnnotations(e *env, args []string) error {
	fs := newFlagSet(e, "annotations", `Usage: siginspect annotations <file.py> <target>

Resolves each annotation of a callable against the definitions and imports
of its module: classes (including nested ones such as Outer.Inner),
functions, builtins, typing constructs and imported names. Optional[X] and
X | None resolve to X.
`)
	if err := parseFlags(e, fs, "annotations", args, 2); err != nil {
		return helpOK(err)
	}

	path, target := fs.Arg(0), fs.Arg(1)
	mod, err := e.loadModule(context.Background(), path)
	if err != nil {
		return err
	}
	tgt, err := lookup(mod, path, target)
	if err != nil {
		return err
	}
	sig, err := tgt.Signature()
	if err != nil {
		return inspectionFailure(err)
	}

	entries := []AnnotationEntry{}
	for _, p := range sig.Params {
		if p.Annotation != "" {
			entries = append(entries, AnnotationEntry{Parameter: p.Name, AnnotationInfo: mod.DescribeAnnotation(p.Annotation)})
		}
	}
	if sig.Return != "" {
		entries = append(entries, AnnotationEntry{Parameter: returnSlot, AnnotationInfo: mod.DescribeAnnotation(sig.Return)})
	}
	e.logger.Debug("annotations.described", "target", target, "count", len(entries))

	if e.format != output.FormatText {
		return writeResult(e, entries)
	}
	renderAnnotations(e, target, entries)
	return nil
}

func renderAnnotations(e *env, target string, entries []AnnotationEntry) {
	ui.Header(target)
	if len(entries) == 0 {
		ui.Info("No annotations")
		return
	}

	unresolved := 0
	tw := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tANNOTATION\tTYPE\tRESOLVED")
	for _, entry := range entries {
		resolved := entry.Resolved
		if !entry.CanLoad {
			unresolved++
			resolved = ui.DimText(entry.Error)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", entry.Parameter, entry.Original, ui.KindText(entry.Kind.String()), resolved)
	}
	_ = tw.Flush()

	fmt.Fprintln(e.stdout)
	if unresolved == 0 {
		ui.Success(fmt.Sprintf("All %d annotations resolve", len(entries)))
		return
	}
	ui.Warningf("%d of %d annotations do not resolve in this module", unresolved, len(entries))
}
