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

	"github.com/Comcast/chatter/interpreters"
	"github.com/Comcast/chatter/plan"
	"github.com/Comcast/chatter/tools"

	"github.com/spf13/cobra"
)

// NewExpectCommand creates the expect command.
func NewExpectCommand(rootOpts *RootOptions) *cobra.Command {
	var planFile string

	cmd := &cobra.Command{
		Use:   "expect --plan PLAN SESSION...",
		Short: "Feed sessions to a plan and check what happens",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := plan.ParseFile(planFile)
			if err != nil {
				return err
			}
			failed := 0
			for _, filename := range args {
				s, err := tools.ReadSession(filename)
				if err != nil {
					return err
				}
				s.Verbose = s.Verbose || rootOpts.Verbose
				_, err = s.Run(cmd.Context(), p, interpreters.Standard())
				status := "ok"
				if err != nil {
					failed++
					status = err.Error()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", filename, status)
			}
			if 0 < failed {
				return fmt.Errorf("%d of %d sessions failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&planFile, "plan", "", "plan file")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}
