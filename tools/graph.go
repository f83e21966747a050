/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package tools

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Comcast/chatter/plan"
)

// node is a box in a picture of a plan.
type node struct {
	id    string
	label string

	// kind is "wait", "result", "fork", or "done".
	kind string
}

// edge is an arrow.  A dotted edge attaches a fork.
type edge struct {
	from, to string
	label    string
	dotted   bool
}

type graph struct {
	nodes []*node
	edges []*edge
}

func (g *graph) node(kind, label string) *node {
	n := &node{
		id:    fmt.Sprintf("n%d", len(g.nodes)+1),
		label: label,
		kind:  kind,
	}
	g.nodes = append(g.nodes, n)
	return n
}

func (g *graph) edge(from, to *node, label string, dotted bool) {
	g.edges = append(g.edges, &edge{
		from:   from.id,
		to:     to.id,
		label:  label,
		dotted: dotted,
	})
}

// conditionLabel describes what a condition looks for.
func conditionLabel(c *plan.Condition, showPatterns bool) string {
	parts := make([]string, 0, 4)
	if c.Label != "" {
		parts = append(parts, c.Label)
	}
	if showPatterns {
		if c.Pattern != nil {
			js, err := json.Marshal(c.Pattern)
			if err != nil {
				js = []byte(err.Error())
			}
			parts = append(parts, string(js))
		}
		if c.Text != "" {
			parts = append(parts, fmt.Sprintf("text %q", c.Text))
		}
		if c.Script != nil {
			parts = append(parts, c.Script.String())
		}
	}
	return strings.Join(parts, " ")
}

func resultLabel(c *plan.Condition) string {
	if c.Resolve != nil {
		return c.Resolve.String()
	}
	js, err := json.Marshal(c.Result)
	if err != nil {
		return err.Error()
	}
	return string(js)
}

// makeGraph draws the plan as a "wait" node with an arrow for each
// condition.  A terminal condition's arrow goes to its result.  Each
// fork hangs off the wait node.
func makeGraph(p *plan.Plan, showPatterns bool) *graph {
	g := &graph{}
	name := p.Name
	if name == "" {
		name = "wait"
	}
	wait := g.node("wait", name)

	for _, c := range p.Conditions {
		label := conditionLabel(c, showPatterns)
		if c.IsTerminal() {
			g.edge(wait, g.node("result", resultLabel(c)), label, false)
		} else {
			g.edge(wait, wait, label, false)
		}
	}

	for _, f := range p.Forks {
		fork := g.node("fork", "fork "+f.Id)
		g.edge(wait, fork, "", true)
		for _, c := range f.Conditions {
			g.edge(fork, fork, conditionLabel(c, showPatterns), false)
		}
		if f.Completed != nil {
			done := g.node("done", resultLabel(f.Completed))
			g.edge(fork, done, conditionLabel(f.Completed, showPatterns), false)
		}
	}

	return g
}

type MermaidOpts struct {
	// ShowPatterns will result in edge labels that include
	// patterns, texts, and scripts.
	ShowPatterns bool `json:"showPatterns"`

	// ResultFill is the fill color for result nodes.
	ResultFill string `json:"resultFill,omitempty"`

	// ForkFill is the fill color for fork nodes.
	ForkFill string `json:"forkFill,omitempty"`
}

// mermaidQuote makes a string safe for a Mermaid label.
func mermaidQuote(s string) string {
	return strings.ReplaceAll(s, `"`, `#quot;`)
}

// Mermaid makes a Mermaid (https://mermaid.js.org/) input file for
// the given plan.
func Mermaid(p *plan.Plan, w io.Writer, opts *MermaidOpts) error {
	if opts == nil {
		opts = &MermaidOpts{
			ShowPatterns: true,
			ResultFill:   "#bcf2db",
			ForkFill:     "#f2e1bc",
		}
	}

	g := makeGraph(p, opts.ShowPatterns)

	fmt.Fprintf(w, "graph TB\n")
	for _, n := range g.nodes {
		switch n.kind {
		case "wait", "fork":
			fmt.Fprintf(w, "  %s((\"%s\"))\n", n.id, mermaidQuote(n.label))
		default:
			fmt.Fprintf(w, "  %s[\"%s\"]\n", n.id, mermaidQuote(n.label))
		}
		switch {
		case n.kind == "result" && opts.ResultFill != "":
			fmt.Fprintf(w, "  style %s fill:%s\n", n.id, opts.ResultFill)
		case n.kind == "fork" && opts.ForkFill != "":
			fmt.Fprintf(w, "  style %s fill:%s\n", n.id, opts.ForkFill)
		}
	}
	for _, e := range g.edges {
		arrow := "-->"
		if e.dotted {
			arrow = "-.->"
		}
		if e.label == "" {
			fmt.Fprintf(w, "  %s %s %s\n", e.from, arrow, e.to)
		} else {
			fmt.Fprintf(w, "  %s %s|\"%s\"| %s\n", e.from, arrow, mermaidQuote(e.label), e.to)
		}
	}
	fmt.Fprintf(w, "\n")

	return nil
}

// Dot makes a Graphviz dot file for the given plan.
//
//	dot -Tpng g.dot > g.png
func Dot(p *plan.Plan, w io.Writer) error {
	g := makeGraph(p, true)

	quote := func(s string) string {
		return strings.ReplaceAll(s, `"`, `\"`)
	}

	fmt.Fprintf(w, "digraph G {\n")
	for _, n := range g.nodes {
		shape, fill := "box", "#99ddc8"
		switch n.kind {
		case "wait":
			shape, fill = "ellipse", "#2d93ad"
		case "fork":
			shape, fill = "ellipse", "#52aa5e"
		case "done":
			fill = "#f98b8b"
		}
		fmt.Fprintf(w, "  %s [shape=\"%s\", style=\"filled\", fillcolor=\"%s\", label=\"%s\"]\n",
			n.id, shape, fill, quote(n.label))
	}
	for _, e := range g.edges {
		style := "solid"
		if e.dotted {
			style = "dotted"
		}
		fmt.Fprintf(w, "  %s -> %s [style=\"%s\", label=\"%s\"]\n", e.from, e.to, style, quote(e.label))
	}
	fmt.Fprintf(w, "}\n")

	return nil
}
