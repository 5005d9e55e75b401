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


package frame

import (
	"fmt"
	"github.com/decosmic/decosmic/internal/stats"
)

// A single detector frame. Pixel counts are stored as float32 in row-major order,
// with the most quickly varying dimension first (i.e. X)
type Image struct {
	ID       int         // Sequential ID number, for log output. Counted upwards from 0
	FileName string      // Original file name, if any, for log output

	Width  int32         // Frame width in pixels
	Height int32         // Frame height in pixels
	Pixels int32         // Number of pixels in the frame, product of width and height

	Data   []float32     // The frame data

	Exposure float32     // Frame exposure in seconds, if known

	Stats  *stats.Stats  // Basic frame statistics: min, mean, max
}

// Creates a frame of the given dimensions. Data is not copied, allocated if nil
func NewImage(width, height int32, data []float32) *Image {
	pixels:=width*height
	if data==nil {
		data=make([]float32, pixels)
	}
	return &Image{
		Width:  width,
		Height: height,
		Pixels: pixels,
		Data:   data,
		Stats:  stats.NewStats(data),
	}
}

// Returns true if the given frame has the same dimensions as this one
func (f *Image) SameShape(g *Image) bool {
	return f.Width==g.Width && f.Height==g.Height
}

// Pretty print frame metadata to string
func (f *Image) String() string {
	return fmt.Sprintf("%d: %s %dx%d %s", f.ID, f.FileName, f.Width, f.Height, f.Stats)
}
