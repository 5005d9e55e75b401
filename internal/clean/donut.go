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
)

// Deviation score of a single pixel in a single frame: the positive part of the
// deviation from the per-pixel mean, in units of the per-pixel standard deviation
func score(v, mean, stdDev float32) float32 {
	s:=(v-mean)/stdDev
	if s<0 { return 0 }
	return s
}

// Raises a nonnegative score to the given exponent. Zero scores stay zero
// for any exponent, so unexceptional pixels never pass a positive threshold
func powScore(s, e float32) float32 {
	if s<=0 { return 0 }
	if e==1 { return s }
	return float32(math.Pow(float64(s), float64(e)))
}

// Detects donut artifacts: isolated pixels whose exponentiated deviation score
// exceeds the donut threshold in at least one frame. Frames are scored in parallel.
// Returns the per-pixel flags combined across frames, and the flags per frame
func DetectDonuts(s *Stack, agg *Aggregate, mask []bool, thDonut, expDonut float32) (flags []bool, perFrame [][]bool) {
	perFrame=make([][]bool, len(s.Frames))
	sem:=make(chan bool, runtime.NumCPU())
	for i,f:=range s.Frames {
		sem<-true
		go func(i int, data []float32) {
			defer func() { <-sem }()
			pf:=make([]bool, s.Pixels)
			for p:=int32(0); p<s.Pixels; p++ {
				if !mask[p] { continue }
				// only positive excursions count, so nonpositive thresholds
				// flag exactly the pixels with an excess
				sc:=score(data[p], agg.Mean[p], agg.StdDev[p])
				if sc>0 && powScore(sc, expDonut)>thDonut {
					pf[p]=true
				}
			}
			perFrame[i]=pf
		}(i, f.Data)
	}
	for i:=0; i<cap(sem); i++ { sem<-true }

	flags=make([]bool, s.Pixels)
	for _,pf:=range perFrame {
		for p,v:=range pf {
			if v { flags[p]=true }
		}
	}
	return flags, perFrame
}
