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
	"math"
	"runtime"

	"github.com/klauspost/cpuid"
)

// Dispersion floor, so scores stay finite on constant pixels
const minDispersion = 1e-6

// Per-pixel aggregate statistics across a frame stack
type Aggregate struct {
	Width   int32
	Height  int32
	Mean    []float32 // Per-pixel mean count across frames
	StdDev  []float32 // Per-pixel standard deviation across frames, floored at minDispersion
	HitFrac []float32 // Per-pixel fraction of frames with a positive count
	MaxMean float32   // Maximum of Mean over all pixels
}

// Aggregates the given stack into per-pixel mean, standard deviation and hit fraction,
// processing pixel batches in parallel
func NewAggregate(s *Stack) *Aggregate {
	agg:=&Aggregate{
		Width:   s.Width,
		Height:  s.Height,
		Mean:    make([]float32, s.Pixels),
		StdDev:  make([]float32, s.Pixels),
		HitFrac: make([]float32, s.Pixels),
	}

	numFrames:=float32(len(s.Frames))
	batch:=batchSize(len(s.Frames))
	sem:=make(chan bool, runtime.NumCPU())
	for start:=int32(0); start<s.Pixels; start+=int32(batch) {
		end:=start+int32(batch)
		if end>s.Pixels { end=s.Pixels }
		sem<-true
		go func(start, end int32) {
			defer func() { <-sem }()
			for p:=start; p<end; p++ {
				sum, hits:=float32(0), float32(0)
				for _,f:=range s.Frames {
					v:=f.Data[p]
					sum+=v
					if v>0 { hits++ }
				}
				mean:=sum/numFrames
				sumSqDiff:=float32(0)
				for _,f:=range s.Frames {
					diff:=f.Data[p]-mean
					sumSqDiff+=diff*diff
				}
				stdDev:=float32(math.Sqrt(float64(sumSqDiff/numFrames)))
				if stdDev<minDispersion { stdDev=minDispersion }
				agg.Mean[p]   =mean
				agg.StdDev[p] =stdDev
				agg.HitFrac[p]=hits/numFrames
			}
		}(start, end)
	}
	for i:=0; i<cap(sem); i++ { sem<-true }

	maxMean:=float32(0)
	for _,m:=range agg.Mean {
		if m>maxMean { maxMean=m }
	}
	agg.MaxMean=maxMean
	return agg
}

// Builds the validity mask: a pixel is valid if its mean count, normalized by the
// maximum mean count, reaches the mask threshold. Fails if no pixel qualifies
func (agg *Aggregate) MakeMask(thMask float32) ([]bool, error) {
	if agg.MaxMean<=0 {
		return nil, &EmptyMaskError{Threshold: thMask, MaxMean: agg.MaxMean}
	}
	mask:=make([]bool, len(agg.Mean))
	valid:=0
	for p,m:=range agg.Mean {
		if m/agg.MaxMean>=thMask {
			mask[p]=true
			valid++
		}
	}
	if valid==0 {
		return nil, &EmptyMaskError{Threshold: thMask, MaxMean: agg.MaxMean}
	}
	return mask, nil
}

// Chooses a pixel batch size so one batch of all frames roughly fits the L2 cache
func batchSize(numFrames int) int {
	cacheBytes:=cpuid.CPU.Cache.L2
	if cacheBytes<=0 { cacheBytes=8*1024*1024 }
	b:=cacheBytes/(4*(numFrames+3))
	if b<1024 { b=1024 }
	return b
}
