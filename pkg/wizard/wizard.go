// Package wizard tracks the fill, review and download steps of document
// generation. It enforces no preconditions; callers validate before jumping.
package wizard

import (
	"fmt"
	"sync"
)

// Step identifies a wizard state. Values are the step ordinals.
type Step int

const (
	StepFill Step = iota + 1
	StepReview
	StepDownload
)

// StepInfo describes a step for display.
type StepInfo struct {
	Step  Step   `json:"step"`
	Key   string `json:"key"`
	Label string `json:"label"`
	Title string `json:"title"`
}

// Steps lists every step in order.
var Steps = []StepInfo{
	{Step: StepFill, Key: "fill", Label: "กรอกข้อมูล", Title: "กรอกข้อมูลเอกสาร"},
	{Step: StepReview, Key: "review", Label: "ตรวจสอบ", Title: "ตรวจสอบข้อมูลก่อนสร้างเอกสาร"},
	{Step: StepDownload, Key: "download", Label: "ดาวน์โหลด", Title: "ดาวน์โหลดเอกสาร"},
}

// Info returns the display metadata for s.
func (s Step) Info() StepInfo {
	if s < StepFill || s > StepDownload {
		return StepInfo{Step: s}
	}
	return Steps[s-1]
}

func (s Step) String() string {
	if info := s.Info(); info.Key != "" {
		return info.Key
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Wizard is a three step linear navigator. The zero value is not ready; use
// New.
type Wizard struct {
	mu      sync.RWMutex
	current Step
}

// New returns a wizard positioned on the fill step.
func New() *Wizard {
	return &Wizard{current: StepFill}
}

// Current returns the active step.
func (w *Wizard) Current() Step {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Next advances one step; it is a no-op on the last step.
func (w *Wizard) Next() Step {
	return w.shift(1)
}

// Previous goes back one step; it is a no-op on the first step.
func (w *Wizard) Previous() Step {
	return w.shift(-1)
}

func (w *Wizard) shift(delta Step) Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	next := w.current + delta
	if next >= StepFill && next <= StepDownload {
		w.current = next
	}
	return w.current
}

func (w *Wizard) jump(step Step) Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = step
	return step
}

// GoToFill jumps back to the fill step from anywhere.
func (w *Wizard) GoToFill() Step { return w.jump(StepFill) }

// GoToReview jumps to the review step. Failed submissions land here.
func (w *Wizard) GoToReview() Step { return w.jump(StepReview) }

// GoToDownload jumps to the download step once a document exists.
func (w *Wizard) GoToDownload() Step { return w.jump(StepDownload) }
