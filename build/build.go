// Package build plans a build from a rule set and runs it on the
// job scheduler. It decides which targets are stale, wires their
// dependencies into job submissions, and runs recipes through the
// shell. The scheduler below it only ever sees opaque ids and goals.
package build

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/xid"

	"github.com/ihh/plmake"
	"github.com/ihh/plmake/progress"
	"github.com/ihh/plmake/rule"
)

// Builder builds targets from a rule set.
// Zero fields get reasonable defaults in Build.
type Builder struct {
	Set     *rule.Set
	Dir     string // directory recipes run in; empty means the process's
	Jobs    int    // worker pool size
	Shell   string // shell for recipe lines, "sh" when empty
	Logger  *log.Logger
	Printer *progress.Printer

	// Stdout and Stderr receive recipe output.
	Stdout io.Writer
	Stderr io.Writer
}

// node is one target in the plan.
type node struct {
	name string
	rule *rule.Rule // nil for source files
	stem string
	deps []string // expanded dependency names

	// staleDeps are the deps that are themselves being rebuilt.
	// Only they are declared to the scheduler; up to date deps are
	// never submitted, so they don't block readiness.
	staleDeps []string
	stale     bool
}

// Build brings the requested targets up to date.
// When targets is empty the first rule's target is built, like make.
// It returns an error when planning fails, when any recipe fails, or
// when the scheduler reports abandoned jobs.
func (b *Builder) Build(targets []string) error {
	if b.Shell == "" {
		b.Shell = "sh"
	}
	if b.Jobs < 1 {
		b.Jobs = 1
	}
	if b.Logger == nil {
		b.Logger = log.Default()
	}
	if b.Printer == nil {
		b.Printer = progress.NewPrinter(os.Stdout)
	}
	if b.Stdout == nil {
		b.Stdout = os.Stdout
	}
	if b.Stderr == nil {
		b.Stderr = os.Stderr
	}
	if len(targets) == 0 {
		first := b.Set.Rules[0].Target
		if strings.Contains(first, "%") {
			return fmt.Errorf("no target given and first rule is a pattern rule: %v", first)
		}
		targets = []string{first}
	}

	p := &plan{b: b, nodes: make(map[string]*node)}
	for _, t := range targets {
		_, err := p.resolve(t, make(map[string]bool))
		if err != nil {
			return err
		}
	}

	runID := xid.New().String()
	b.Logger.Printf("build %v: %d of %d targets stale", runID, p.staleCount(), len(p.order))

	sched := plmake.NewScheduler(b.Jobs, b.Logger)
	var mu sync.Mutex
	var failed []string
	// Submission is in dependency post-order, so every stale dep is
	// already in the scheduler's table when its dependent is examined.
	for _, n := range p.order {
		if !n.stale {
			continue
		}
		n := n
		goal := func() error {
			err := b.runRecipe(n, runID)
			if err != nil {
				mu.Lock()
				failed = append(failed, n.name)
				mu.Unlock()
				b.Printer.Fail(n.name, err)
				return err
			}
			b.Printer.Done(n.name)
			return nil
		}
		deps := make([]plmake.JobID, len(n.staleDeps))
		for i, d := range n.staleDeps {
			deps[i] = plmake.JobID(d)
		}
		sched.Submit(goal, plmake.JobID(n.name), deps, plmake.JobOptions{
			Label: n.name,
			Env:   []string{"PLMAKE_RUN=" + runID},
		})
	}
	for _, t := range targets {
		if n := p.nodes[t]; n != nil && !n.stale {
			b.Printer.Skip(t)
		}
	}

	err := sched.Wait()
	if err != nil {
		return fmt.Errorf("build %v: %w", runID, err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(failed) > 0 {
		return fmt.Errorf("build %v: failed targets: %v", runID, strings.Join(failed, ", "))
	}
	return nil
}

// runRecipe runs the node's expanded recipe lines one by one,
// stopping at the first failure.
func (b *Builder) runRecipe(n *node, runID string) error {
	b.Printer.Start(n.name)
	for _, line := range n.rule.Recipe {
		cmdline := b.Set.Expand(line, n.name, n.deps, n.stem)
		cmd := exec.Command(b.Shell, "-c", cmdline)
		cmd.Dir = b.Dir
		cmd.Env = append(os.Environ(), "PLMAKE_RUN="+runID)
		cmd.Stdout = b.Stdout
		cmd.Stderr = b.Stderr
		err := cmd.Run()
		if err != nil {
			return fmt.Errorf("%v: %v", cmdline, err)
		}
	}
	return nil
}

// plan resolves targets against the rule set and memoizes the result.
type plan struct {
	b     *Builder
	nodes map[string]*node
	order []*node // dependency post-order
}

func (p *plan) staleCount() int {
	n := 0
	for _, nd := range p.order {
		if nd.stale {
			n++
		}
	}
	return n
}

// resolve finds or creates the node for a target, resolving its
// dependencies first. visiting holds the targets on the current
// resolution path, for cycle detection; cycles in the rule graph are
// a planning error, the scheduler never sees them.
func (p *plan) resolve(target string, visiting map[string]bool) (*node, error) {
	if visiting[target] {
		return nil, fmt.Errorf("circular dependency on %v", target)
	}
	if n, ok := p.nodes[target]; ok {
		return n, nil
	}
	r, stem, ok := p.b.Set.Match(target)
	if !ok {
		_, err := os.Stat(p.path(target))
		if err != nil {
			return nil, fmt.Errorf("no rule to make target %q", target)
		}
		n := &node{name: target}
		p.nodes[target] = n
		return n, nil
	}
	visiting[target] = true
	defer delete(visiting, target)

	n := &node{name: target, rule: r, stem: stem, deps: r.DepsFor(stem)}
	for _, dep := range n.deps {
		dn, err := p.resolve(dep, visiting)
		if err != nil {
			return nil, err
		}
		if dn.stale {
			n.staleDeps = append(n.staleDeps, dep)
		}
	}
	n.stale = p.isStale(n)
	p.nodes[target] = n
	p.order = append(p.order, n)
	return n, nil
}

// isStale reports whether a target needs rebuilding: its file is
// missing, a dep is being rebuilt, or a dep file is newer.
func (p *plan) isStale(n *node) bool {
	if len(n.staleDeps) > 0 {
		return true
	}
	fi, err := os.Stat(p.path(n.name))
	if err != nil {
		return true
	}
	for _, dep := range n.deps {
		dfi, err := os.Stat(p.path(dep))
		if err != nil {
			// The dep has no file yet; its own staleness already
			// covered this unless it is being created fresh.
			return true
		}
		if dfi.ModTime().After(fi.ModTime()) {
			return true
		}
	}
	return false
}

func (p *plan) path(name string) string {
	if filepath.IsAbs(name) || p.b.Dir == "" {
		return name
	}
	return filepath.Join(p.b.Dir, name)
}
