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

package cor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedCommand records its execution order and either fails, emits a
// scripted output, or passes its input through untouched.
type scriptedCommand struct {
	BaseCommand
	fail     bool
	output   interface{}
	executed *[]string
}

func newScriptedCommand(name string, executed *[]string) *scriptedCommand {
	return &scriptedCommand{BaseCommand: *NewBaseCommand(name), executed: executed}
}

func (c *scriptedCommand) Execute(context Context) {
	*c.executed = append(*c.executed, c.GetName())
	if c.fail {
		context.AddError(c.GetName(), errors.New("scripted failure"))
		return
	}
	if c.output != nil {
		context.Add(c.GetOutputParam(), c.output)
	}
}

func newChainContext(input interface{}) Context {
	chCtx := NewBaseContext()
	chCtx.SetContext(context.Background())
	chCtx.Add(CtxIn, input)
	return chCtx
}

func TestChainPipesOutputToNextInput(t *testing.T) {
	var executed []string
	first := newScriptedCommand("first", &executed)
	first.output = "from-first"
	second := newScriptedCommand("second", &executed)
	second.output = "from-second"

	chCtx := newChainContext("initial")
	NewBaseChain("pipe").AddCommand(first).AddCommand(second).Execute(chCtx)

	assert.Equal(t, []string{"first", "second"}, executed)
	assert.Equal(t, "from-second", chCtx.Get(CtxIn))
	assert.Nil(t, chCtx.Get(CtxOut))
	assert.False(t, chCtx.HasErrors())
}

func TestChainFatalStageAborts(t *testing.T) {
	var executed []string
	first := newScriptedCommand("first", &executed)
	first.output = "from-first"
	failing := newScriptedCommand("failing", &executed)
	failing.fail = true
	after := newScriptedCommand("after", &executed)

	chCtx := newChainContext("initial")
	NewBaseChain("fatal").
		AddCommand(first).
		AddCommand(failing).
		AddCommand(after).
		Execute(chCtx)

	// The command after the fatal failure never runs and the error stands.
	assert.Equal(t, []string{"first", "failing"}, executed)
	require.True(t, chCtx.HasErrors())
	assert.Contains(t, chCtx.GetErrors(), "failing")
}

func TestChainRecoverableStageContinues(t *testing.T) {
	var executed []string
	first := newScriptedCommand("first", &executed)
	first.output = "from-first"
	failing := newScriptedCommand("failing", &executed)
	failing.fail = true
	after := newScriptedCommand("after", &executed)
	after.output = "from-after"

	chCtx := newChainContext("initial")
	NewBaseChain("recoverable").
		AddCommand(first).
		AddRecoverableCommand(failing).
		AddCommand(after).
		Execute(chCtx)

	assert.Equal(t, []string{"first", "failing", "after"}, executed)
	assert.False(t, chCtx.HasErrors())
	assert.Equal(t, "from-after", chCtx.Get(CtxIn))
}

func TestChainRecoveredStageLeavesInputStanding(t *testing.T) {
	var executed []string
	first := newScriptedCommand("first", &executed)
	first.output = "from-first"
	failing := newScriptedCommand("failing", &executed)
	failing.fail = true
	after := newScriptedCommand("after", &executed)

	chCtx := newChainContext("initial")
	NewBaseChain("standing").
		AddCommand(first).
		AddRecoverableCommand(failing).
		AddRecoverableCommand(after).
		Execute(chCtx)

	// The recovered stage produced no output, so the command behind it
	// still sees the last good state.
	assert.Equal(t, []string{"first", "failing", "after"}, executed)
	assert.Equal(t, "from-first", chCtx.Get(CtxIn))
}

func TestChainSkipsCommandWithoutInput(t *testing.T) {
	var executed []string
	command := newScriptedCommand("needs-input", &executed)

	chCtx := NewBaseContext()
	chCtx.SetContext(context.Background())
	NewBaseChain("no-input").AddCommand(command).Execute(chCtx)

	assert.Empty(t, executed)
}

func TestAddErrorWrapsIntoStageError(t *testing.T) {
	chCtx := NewBaseContext()
	cause := errors.New("model unavailable")
	chCtx.AddError("face-detect", cause)

	err := chCtx.GetErrors()["face-detect"]
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "face-detect", stageErr.Stage)
	assert.ErrorIs(t, err, cause)

	// An error that already carries its stage is not double-wrapped.
	chCtx.AddError("relabeled", err)
	var rewrapped *StageError
	require.ErrorAs(t, chCtx.GetErrors()["relabeled"], &rewrapped)
	assert.Equal(t, "face-detect", rewrapped.Stage)
}
