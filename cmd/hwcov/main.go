// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command hwcov builds a coverage model from a YAML description, samples it
// from a trace file and prints a coverage report.
//
// Trace files hold one sample per line:
//
//	# scope path/instance coverpoint=value...
//	tb/agent/alu0 op=1 a=-3
//	tb/agent/alu0 op=0x2 a=12
//
// Values are decimal or 0x, 0o, 0b prefixed integers. Coverpoints not listed
// on a line keep their previous value.
//
package main

import (
	"bufio"
	"flag"
	"io"
	"os"
	"strconv"
	"strings"

	hw "github.com/db47h/hwcov"
	"github.com/db47h/hwcov/model"
	"github.com/db47h/hwcov/report"
	"github.com/db47h/hwcov/ucis"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type patterns []string

func (p *patterns) String() string { return strings.Join(*p, ",") }

func (p *patterns) Set(s string) error {
	*p = append(*p, s)
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		logrus.Fatal(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var include patterns
	fs := flag.NewFlagSet("hwcov", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flagModel := fs.String("model", "", "YAML model `file`")
	flagTrace := fs.String("trace", "", "sample trace `file`, - for stdin")
	flagUCIS := fs.String("ucis", "", "write UCIS XML coverage to `file`")
	flagVerbose := fs.Bool("v", false, "list coverpoints and crosses in the report")
	fs.Var(&include, "include", "only report covergroup instances matching `glob` (scopeType/cgType/instance, repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *flagModel == "" {
		return errors.New("-model is not set")
	}

	m, err := model.LoadFile(*flagModel)
	if err != nil {
		return err
	}
	m.Config.Output = stderr
	ctx, _, err := m.Build()
	if err != nil {
		return err
	}
	defer ctx.Close()

	if *flagTrace != "" {
		if err = replay(ctx, *flagTrace); err != nil {
			return err
		}
	}
	if err = report.Write(stdout, ctx, report.Options{Include: include, Verbose: *flagVerbose}); err != nil {
		return err
	}
	if *flagUCIS != "" {
		return ucis.Save(*flagUCIS, ctx)
	}
	return nil
}

func replay(ctx *hw.Context, name string) error {
	var r io.Reader = os.Stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return errors.Wrap(err, "trace")
		}
		defer f.Close()
		r = f
	}
	t := tracer{ctx: ctx, probes: make(map[string]*model.Probe)}
	s := bufio.NewScanner(r)
	for line := 1; s.Scan(); line++ {
		if err := t.sample(s.Text()); err != nil {
			return errors.Wrapf(err, "%s:%d", name, line)
		}
	}
	return errors.Wrap(s.Err(), "trace")
}

// tracer samples covergroup instances from trace lines.
type tracer struct {
	ctx    *hw.Context
	probes map[string]*model.Probe
}

func (t *tracer) probe(path string) (*model.Probe, error) {
	if p, ok := t.probes[path]; ok {
		return p, nil
	}
	cg, err := t.ctx.Covergroup(path)
	if err != nil {
		return nil, err
	}
	p, err := model.NewProbe(cg)
	if err != nil {
		return nil, err
	}
	t.probes[path] = p
	return p, nil
}

func (t *tracer) sample(line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	p, err := t.probe(fields[0])
	if err != nil {
		return err
	}
	for _, f := range fields[1:] {
		name, val, ok := strings.Cut(f, "=")
		if !ok {
			return errors.Errorf("expected coverpoint=value, got %q", f)
		}
		v, err := strconv.ParseInt(val, 0, 64)
		if err != nil {
			return errors.Wrapf(err, "coverpoint %s", name)
		}
		if err = p.Set(name, v); err != nil {
			return err
		}
	}
	return errors.Wrap(p.Sample(), fields[0])
}
