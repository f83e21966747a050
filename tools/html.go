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

// Package tools has utilities for looking at plans.
package tools

import (
	"fmt"
	"html"
	"io"

	"github.com/Comcast/chatter/plan"
	"github.com/Comcast/chatter/util"

	md "github.com/russross/blackfriday/v2"
)

// RenderPlanHTML writes an HTML fragment describing the plan.
//
// Docs are Markdown.
func RenderPlanHTML(p *plan.Plan, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	f(`<div class="planDoc doc">%s</div>`, md.Run([]byte(p.Doc)))

	if p.Timeout != nil {
		f(`<div class="timeout">timeout: <span>%vs</span></div>`, *p.Timeout)
	}

	condition := func(i int, c *plan.Condition) {
		f(`<tr class="condition"><td><div class="conditionNum">%d</div></td><td>`, i)
		f(`<div class="conditionLabel">%s</div>`, html.EscapeString(c.Label))
		if c.Doc != "" {
			f(`<div class="conditionDoc doc">%s</div>`, md.Run([]byte(c.Doc)))
		}
		f(`<table>`)
		if c.Pattern != nil {
			f(`<tr><td>pattern</td><td><code>%s</code></td></tr>`, html.EscapeString(util.JS(c.Pattern)))
		}
		if c.Script != nil {
			f(`<tr><td>script (%s)</td><td><div class="code"><pre>%s</pre></div></td></tr>`,
				html.EscapeString(c.Script.Interpreter), html.EscapeString(c.Script.Source))
		}
		if c.Text != "" {
			f(`<tr><td>text</td><td><code>%s</code></td></tr>`, html.EscapeString(c.Text))
		}
		for _, msg := range c.Emit {
			f(`<tr><td>emit</td><td><code>%s</code></td></tr>`, html.EscapeString(util.JS(msg)))
		}
		switch {
		case c.Resolve != nil:
			f(`<tr><td>resolve (%s)</td><td><div class="code"><pre>%s</pre></div></td></tr>`,
				html.EscapeString(c.Resolve.Interpreter), html.EscapeString(c.Resolve.Source))
		case c.IsTerminal():
			f(`<tr><td>result</td><td><code>%s</code></td></tr>`, html.EscapeString(util.JS(c.Result)))
		}
		f(`</table>`)
		f(`</td></tr>`)
	}

	f(`<div class="conditions"><table>`)
	for i, c := range p.Conditions {
		condition(i, c)
	}
	f(`</table></div>`)

	for _, fork := range p.Forks {
		f(`<div class="fork" id="%s">`, html.EscapeString(fork.Id))
		f(`<h2 class="forkId">fork %s</h2>`, html.EscapeString(fork.Id))
		if fork.Doc != "" {
			f(`<div class="forkDoc doc">%s</div>`, md.Run([]byte(fork.Doc)))
		}
		f(`<div class="forkOpts">exclusive: %v, quickStop: %v</div>`, fork.Exclusive, fork.IsQuickStop())
		f(`<table>`)
		for i, c := range fork.Conditions {
			condition(i, c)
		}
		if fork.Completed != nil {
			f(`<tr><td colspan="2">completed</td></tr>`)
			condition(len(fork.Conditions), fork.Completed)
		}
		f(`</table>`)
		f(`</div>`)
	}

	return nil
}

// RenderPlanPage writes a complete HTML page.
func RenderPlanPage(p *plan.Plan, out io.Writer, cssFiles []string) error {
	if cssFiles == nil {
		cssFiles = []string{"/static/plan-html.css"}
	}

	fmt.Fprintf(out, `<!DOCTYPE html>
<html>
  <head>
  <meta charset="utf-8">
  <title>%s</title>
`, html.EscapeString(p.Name))

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, html.EscapeString(p.Name))

	if err := RenderPlanHTML(p, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

// ReadAndRenderPlanPage parses the file and renders the page.
func ReadAndRenderPlanPage(filename string, cssFiles []string, out io.Writer) error {
	p, err := plan.ParseFile(filename)
	if err != nil {
		return err
	}
	return RenderPlanPage(p, out, cssFiles)
}
