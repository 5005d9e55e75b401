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
	"fmt"
	"math"
	"runtime"

	"github.com/decosmic/decosmic/internal/frame"
)

// A stack of detector frames of identical dimensions, ready for aggregation.
// Pixel values have been sanitized on construction
type Stack struct {
	Frames []*frame.Image
	Width  int32
	Height int32
	Pixels int32
}

// Builds a stack from the given frames, sanitizing pixel values in place.
// NaNs and negative counts are zeroed. Counts above hotPixel are zeroed as well
// if hotPixel is positive. Requires at least two frames of identical dimensions
func NewStack(frames []*frame.Image, hotPixel float32) (*Stack, error) {
	if len(frames)<2 {
		return nil, &ShapeMismatchError{fmt.Sprintf("need at least 2 frames, have %d", len(frames))}
	}
	width, height:=frames[0].Width, frames[0].Height
	if width<1 || height<1 {
		return nil, &ShapeMismatchError{fmt.Sprintf("%s: empty frame %dx%d", frames[0].FileName, width, height)}
	}
	for _,f:=range frames[1:] {
		if !f.SameShape(frames[0]) {
			return nil, &ShapeMismatchError{fmt.Sprintf("%s: frame is %dx%d, expected %dx%d",
				f.FileName, f.Width, f.Height, width, height)}
		}
	}

	s:=&Stack{Frames: frames, Width: width, Height: height, Pixels: width*height}
	s.sanitize(hotPixel)
	return s, nil
}

// Zeroes NaN, negative and hot pixel values in all frames, in parallel
func (s *Stack) sanitize(hotPixel float32) {
	sem:=make(chan bool, runtime.NumCPU())
	for _,f:=range s.Frames {
		sem<-true
		go func(data []float32) {
			defer func() { <-sem }()
			for i,v:=range data {
				if math.IsNaN(float64(v)) || v<0 || (hotPixel>0 && v>hotPixel) {
					data[i]=0
				}
			}
		}(f.Data)
	}
	for i:=0; i<cap(sem); i++ { sem<-true }
}
