// Copyright 2025 Clipstream, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cor: this file defines BaseChain, the default Chain
// implementation.
//
// A BaseChain executes its commands in registration order inside one parent
// trace span, with a child span per command. Between commands it performs
// the data "flip-flop": whatever the previous command left under CtxOut
// becomes the CtxIn of the next. When a command records an error, the
// chain's policy table decides what happens: fatal commands stop the chain
// with the error standing; recoverable commands have the error logged with
// its command context, cleared from the chain context, and execution moves
// on — the stage's contribution is simply absent downstream.
package cor

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
)

// stage pairs a command with its failure policy.
type stage struct {
	command     Command
	recoverable bool
}

// BaseChain is the default implementation of the Chain interface.
type BaseChain struct {
	BaseCommand
	stages []stage
}

// NewBaseChain constructs an empty chain with the given name.
func NewBaseChain(name string) *BaseChain {
	return &BaseChain{BaseCommand: *NewBaseCommand(name)}
}

// AddCommand appends a command whose failure aborts the chain.
func (c *BaseChain) AddCommand(command Command) Chain {
	c.stages = append(c.stages, stage{command: command})
	return c
}

// AddRecoverableCommand appends a command whose failure is logged and
// skipped.
func (c *BaseChain) AddRecoverableCommand(command Command) Chain {
	c.stages = append(c.stages, stage{command: command, recoverable: true})
	return c
}

// IsExecutable reports whether the chain has a Go context to run under.
func (c *BaseChain) IsExecutable(context Context) bool {
	return context.GetContext() != nil
}

// Execute runs all commands in order under the chain's policy table.
func (c *BaseChain) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()

	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()

	for _, s := range c.stages {
		command := s.command
		commandContext, commandSpan := c.Tracer.Start(outerCtx, command.GetName())

		// A fatal error from an earlier command ends the chain.
		if chCtx.HasErrors() {
			commandSpan.SetStatus(codes.Error, "previous error on chain; skipping execution")
			commandSpan.End()
			break
		}

		if command.IsExecutable(chCtx) {
			chCtx.SetContext(commandContext)
			command.Execute(chCtx)
			// Reset to the chain's own context so the next command's span is
			// a sibling, not a grandchild.
			chCtx.SetContext(outerCtx)
		} else {
			commandSpan.SetStatus(codes.Error, fmt.Sprintf("command not executable: %s", command.GetName()))
		}

		if chCtx.HasErrors() {
			commandSpan.SetStatus(codes.Error, "error during command execution")
			command.GetErrorCounter().Add(outerCtx, 1)
			if s.recoverable {
				// Recoverable stage: log each recorded error with its source
				// and let the chain continue without this stage's output.
				for name, err := range chCtx.GetErrors() {
					slog.WarnContext(outerCtx, "recoverable pipeline stage failed; continuing without it",
						"chain", c.GetName(), "stage", name, "error", err)
				}
				chCtx.ClearErrors()
				chCtx.Remove(command.GetOutputParam())
			}
		} else {
			commandSpan.SetStatus(codes.Ok, "command completed successfully")
			command.GetSuccessCounter().Add(outerCtx, 1)
		}
		commandSpan.End()

		// Flip-flop: a command that produced output replaces the chain input
		// with it. One that produced none (a skipped or recovered stage)
		// leaves the current input standing for the next command.
		if outputValue := chCtx.Get(CtxOut); outputValue != nil {
			chCtx.Remove(CtxIn)
			chCtx.Add(CtxIn, outputValue)
			chCtx.Remove(CtxOut)
		}
	}

	if !chCtx.HasErrors() {
		chainSpan.SetStatus(codes.Ok, "chain completed successfully")
	} else {
		chainSpan.SetStatus(codes.Error, "chain failed to execute")
	}
}
