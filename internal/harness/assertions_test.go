package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/compneuro-ncu/order-task/internal/engine"
	"github.com/compneuro-ncu/order-task/internal/task"
)

func TestEvaluate_ViewOrder(t *testing.T) {
	result := NewResult("t")
	result.Views = []engine.View{
		{Kind: engine.ViewText},
		{Kind: engine.ViewFixation},
		{Kind: engine.ViewDigits},
		{Kind: engine.ViewFixation},
	}

	s := &Scenario{Assertions: []Assertion{
		{Type: AssertViewOrder, Views: []string{"text", "fixation", "digits"}},
	}}
	evaluate(s, result)
	assert.True(t, result.Passed())

	// Wrong order: digits first appears after fixation, not before.
	result2 := NewResult("t")
	result2.Views = result.Views
	s2 := &Scenario{Assertions: []Assertion{
		{Type: AssertViewOrder, Views: []string{"digits", "fixation"}},
	}}
	evaluate(s2, result2)
	assert.False(t, result2.Passed())

	// Never rendered.
	result3 := NewResult("t")
	result3.Views = result.Views
	s3 := &Scenario{Assertions: []Assertion{
		{Type: AssertViewOrder, Views: []string{"feedback"}},
	}}
	evaluate(s3, result3)
	assert.False(t, result3.Passed())
}

func TestEvaluate_RTWithin(t *testing.T) {
	result := NewResult("t")
	result.Records = []task.Record{
		{Response: task.Response{RT: 0.52, Correct: 1}},
	}

	s := &Scenario{Assertions: []Assertion{
		{Type: AssertRTWithin, Index: 0, Min: 0.4, Max: 0.6},
		{Type: AssertRTWithin, Index: 0, Min: 0.6, Max: 0.7},
		{Type: AssertRTWithin, Index: 5, Min: 0, Max: 1},
	}}
	evaluate(s, result)
	assert.Len(t, result.Failures, 2)
}

func TestEvaluate_CorrectSequenceLengthMismatch(t *testing.T) {
	result := NewResult("t")
	result.Records = []task.Record{{Response: task.Response{Correct: 1}}}

	s := &Scenario{Assertions: []Assertion{
		{Type: AssertCorrectSeq, Values: []int{1, 0}},
	}}
	evaluate(s, result)
	assert.False(t, result.Passed())
}
