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

// Package cor (Chain of Responsibility) provides the building blocks for
// the processing pipeline: commands as atomic units of work, a shared
// context carrying state between them, and chains that execute commands in
// order. Failure policy is declared per command when the chain is built —
// a command is registered as either fatal (an error stops the chain) or
// recoverable (an error is logged, cleared, and the chain continues) — so
// the policy lives in one table rather than in scattered error handling.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys that manage the primary data flow within a
// chain: after each command runs, the chain moves the value under CtxOut to
// CtxIn for the next command.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the shared state object passed through a chain of commands.
// It acts as a property bag for a single pipeline execution, carrying data,
// errors, and temp-file bookkeeping between commands.
type Context interface {
	// SetContext sets the standard Go context, used for cancellation and
	// trace propagation.
	SetContext(ctx context.Context)

	// GetContext retrieves the standard Go context.
	GetContext() context.Context

	// Add stores a key-value pair. Returns the Context for chaining.
	Add(key string, value interface{}) Context

	// Get retrieves a value by key, or nil.
	Get(key string) interface{}

	// Remove deletes a key-value pair.
	Remove(key string)

	// AddError records an error, keyed by the command that produced it.
	AddError(key string, err error)

	// GetErrors returns all errors collected so far.
	GetErrors() map[string]error

	// HasErrors reports whether any errors have been recorded.
	HasErrors() bool

	// ClearErrors discards recorded errors. The chain uses this after a
	// recoverable command fails, so that later commands still run.
	ClearErrors()

	// AddTempFile tracks a run-private file for cleanup at Close.
	AddTempFile(file string)

	// GetTempFiles returns all tracked temp file paths.
	GetTempFiles() []string

	// Close removes all tracked temp files. Defer it at the start of a run.
	Close()
}

// Executable is anything with a core execution step.
type Executable interface {
	Execute(context Context)
}

// Command represents an atomic, testable unit of work in the pipeline.
type Command interface {
	Executable

	// GetName returns the command's name, used for logging and telemetry.
	GetName() string

	// GetInputParam returns the context key holding the command's input.
	GetInputParam() string

	// GetOutputParam returns the context key for the command's output.
	GetOutputParam() string

	// IsExecutable reports whether the command can run against the current
	// context state. Checked before Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is a sequence of commands with a per-command failure policy. A
// Chain is itself a Command, so chains can nest.
type Chain interface {
	Command

	// AddCommand appends a fatal command: if it records an error, the chain
	// stops and the error stands.
	AddCommand(command Command) Chain

	// AddRecoverableCommand appends a recoverable command: if it records an
	// error, the chain logs it, clears it, and proceeds to the next command.
	AddRecoverableCommand(command Command) Chain
}
