package tui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubmitMachine_Lifecycle(t *testing.T) {
	var m submitMachine[string]
	assert.Equal(t, StateInactive, m.State())
	assert.False(t, m.Submit("x"), "cannot submit while inactive")

	assert.True(t, m.Activate())
	assert.False(t, m.Activate(), "already active")
	assert.True(t, m.Submit("draft"))
	assert.True(t, m.Busy())
	assert.False(t, m.Submit("again"), "second submit is rejected while in flight")

	assert.True(t, m.Succeed())
	assert.Equal(t, StateInactive, m.State())
	assert.Empty(t, m.Message())
}

func TestSubmitMachine_FailRestoresPrior(t *testing.T) {
	var m submitMachine[string]
	m.Activate()
	m.Submit("draft")

	prior, ok := m.Fail(errors.New("network down"))
	assert.True(t, ok)
	assert.Equal(t, "draft", prior)
	assert.Equal(t, StateActive, m.State())
	assert.Equal(t, "network down", m.Message())

	m.Edited()
	assert.Empty(t, m.Message())

	_, ok = m.Fail(errors.New("late"))
	assert.False(t, ok, "fail outside Submitting is ignored")
}

func TestSubmitMachine_FetchFailedStaysInteractive(t *testing.T) {
	var m submitMachine[int]
	m.FetchFailed(errors.New("ignored"))
	assert.Equal(t, StateInactive, m.State())

	m.Activate()
	m.FetchFailed(errors.New("could not load"))
	assert.Equal(t, StateError, m.State())
	assert.Equal(t, "could not load", m.Message())
	assert.True(t, m.Submit(3), "submits are accepted from Error")

	m.Deactivate()
	m.Activate()
	m.FetchFailed(errors.New("again"))
	m.Edited()
	assert.Equal(t, StateActive, m.State())
}

func TestSubmitMachine_RejectKeepsState(t *testing.T) {
	var m submitMachine[string]
	m.Reject("ignored while inactive")
	assert.Empty(t, m.Message())

	m.Activate()
	m.Reject("empty")
	assert.Equal(t, StateActive, m.State())
	assert.Equal(t, "empty", m.Message())
}

func TestWidgetState_String(t *testing.T) {
	tests := []struct {
		state WidgetState
		want  string
	}{
		{StateInactive, "inactive"},
		{StateActive, "active"},
		{StateSubmitting, "submitting"},
		{StateError, "error"},
		{WidgetState(9), "state(9)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}
