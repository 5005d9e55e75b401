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
	"runtime"
)

// Detects streak artifacts: runs of elevated deviation scores along a row or column.
// A sliding window of winStreak pixels passes when its exponentiated mean score
// exceeds the streak threshold; all pixels of a passing window are flagged.
// Frames are scored in parallel. Returns the per-pixel flags combined across
// frames and directions, and the flags per frame
func DetectStreaks(s *Stack, agg *Aggregate, mask []bool, thStreak, expStreak float32, winStreak int32) (flags []bool, perFrame [][]bool) {
	perFrame=make([][]bool, len(s.Frames))
	sem:=make(chan bool, runtime.NumCPU())
	for i,f:=range s.Frames {
		sem<-true
		go func(i int, data []float32) {
			defer func() { <-sem }()
			scores:=make([]float32, s.Pixels)
			for p:=int32(0); p<s.Pixels; p++ {
				if mask[p] {
					scores[p]=score(data[p], agg.Mean[p], agg.StdDev[p])
				}
			}
			pf:=make([]bool, s.Pixels)
			flagStreakRows   (scores, pf, s.Width, s.Height, thStreak, expStreak, winStreak)
			flagStreakColumns(scores, pf, s.Width, s.Height, thStreak, expStreak, winStreak)
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

	// streaks only exist on valid pixels
	for p,v:=range mask {
		if !v { flags[p]=false }
	}
	return flags, perFrame
}

// Slides a window along each row, flagging all pixels of windows whose
// exponentiated mean score exceeds the threshold
func flagStreakRows(scores []float32, flags []bool, width, height int32, thStreak, expStreak float32, winStreak int32) {
	winSize:=float32(winStreak)
	for y:=int32(0); y<height; y++ {
		row:=scores[y*width : (y+1)*width]
		sum:=float32(0)
		for x:=int32(0); x<winStreak; x++ { sum+=row[x] }
		for x0:=int32(0); ; x0++ {
			if m:=sum/winSize; m>0 && powScore(m, expStreak)>thStreak {
				for x:=x0; x<x0+winStreak; x++ {
					flags[y*width+x]=true
				}
			}
			if x0+winStreak>=width { break }
			sum+=row[x0+winStreak]-row[x0]
		}
	}
}

// Slides a window along each column, flagging all pixels of windows whose
// exponentiated mean score exceeds the threshold
func flagStreakColumns(scores []float32, flags []bool, width, height int32, thStreak, expStreak float32, winStreak int32) {
	winSize:=float32(winStreak)
	for x:=int32(0); x<width; x++ {
		sum:=float32(0)
		for y:=int32(0); y<winStreak; y++ { sum+=scores[y*width+x] }
		for y0:=int32(0); ; y0++ {
			if m:=sum/winSize; m>0 && powScore(m, expStreak)>thStreak {
				for y:=y0; y<y0+winStreak; y++ {
					flags[y*width+x]=true
				}
			}
			if y0+winStreak>=height { break }
			sum+=scores[(y0+winStreak)*width+x]-scores[y0*width+x]
		}
	}
}
