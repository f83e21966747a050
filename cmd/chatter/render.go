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

package main

import (
	"fmt"

	"github.com/Comcast/chatter/plan"
	"github.com/Comcast/chatter/tools"

	"github.com/spf13/cobra"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Format       string
	CSS          []string
	HidePatterns bool
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render PLAN",
		Short: "Write a plan as HTML, Mermaid, or Graphviz dot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if opts.Format == "html" {
				return tools.ReadAndRenderPlanPage(args[0], opts.CSS, out)
			}
			p, err := plan.ParseFile(args[0])
			if err != nil {
				return err
			}
			switch opts.Format {
			case "mermaid":
				mo := &tools.MermaidOpts{
					ShowPatterns: !opts.HidePatterns,
					ResultFill:   "#bcf2db",
					ForkFill:     "#f2e1bc",
				}
				return tools.Mermaid(p, out, mo)
			case "dot":
				return tools.Dot(p, out)
			default:
				return fmt.Errorf("unknown format %q", opts.Format)
			}
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "html", `"html", "mermaid", or "dot"`)
	cmd.Flags().StringSliceVar(&opts.CSS, "css", nil, "html: stylesheet URLs")
	cmd.Flags().BoolVar(&opts.HidePatterns, "hide-patterns", false, "mermaid: only show condition labels")

	return cmd
}
