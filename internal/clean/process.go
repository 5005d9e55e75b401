// Copyright (C) 2025 The decosmic authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package clean

import (
	"sync"

	"github.com/decosmic/decosmic/internal/frame"
)

// Runs cleaning passes over one frame stack. The aggregate statistics do not
// depend on the tuning parameters, so they are computed once and reused when
// the same stack is re-run with different parameters
type Processor struct {
	stack *Stack

	mutex sync.Mutex
	agg   *Aggregate
}

// Creates a processor for the given frames, sanitizing them with the given
// hot pixel threshold
func NewProcessor(frames []*frame.Image, hotPixel float32) (*Processor, error) {
	stack, err:=NewStack(frames, hotPixel)
	if err!=nil { return nil, err }
	return &Processor{stack: stack}, nil
}

// The stack this processor operates on
func (proc *Processor) Stack() *Stack {
	return proc.stack
}

// Returns the cached aggregate statistics, computing them on first use
func (proc *Processor) Aggregate() *Aggregate {
	proc.mutex.Lock()
	defer proc.mutex.Unlock()
	if proc.agg==nil {
		proc.agg=NewAggregate(proc.stack)
	}
	return proc.agg
}

// Runs one cleaning pass with the given parameters. Computes the validity mask,
// detects donut and streak artifacts, and composes the named outputs.
// Set variance to also compute the variance outputs
func (proc *Processor) Run(params *Params, variance bool) (*Result, error) {
	if err:=params.Verify(proc.stack.Width, proc.stack.Height); err!=nil {
		return nil, err
	}
	agg:=proc.Aggregate()

	mask, err:=agg.MakeMask(params.ThMask)
	if err!=nil { return nil, err }

	donut,  donutPerFrame :=DetectDonuts (proc.stack, agg, mask, params.ThDonut,  params.ExpDonut)
	streak, streakPerFrame:=DetectStreaks(proc.stack, agg, mask, params.ThStreak, params.ExpStreak, params.WinStreak)

	frameFlags:=make([][]bool, len(proc.stack.Frames))
	for i:=range frameFlags {
		combined:=make([]bool, proc.stack.Pixels)
		for p,v:=range donutPerFrame[i]  { if v { combined[p]=true } }
		for p,v:=range streakPerFrame[i] { if v { combined[p]=true } }
		frameFlags[i]=combined
	}

	return Compose(proc.stack, agg, mask, donut, streak, frameFlags, variance), nil
}

// Convenience wrapper: builds a processor and runs a single cleaning pass
func Process(frames []*frame.Image, hotPixel float32, params *Params, variance bool) (*Result, error) {
	proc, err:=NewProcessor(frames, hotPixel)
	if err!=nil { return nil, err }
	return proc.Run(params, variance)
}
