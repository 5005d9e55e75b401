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

	"github.com/decosmic/decosmic/internal/frame"
	"github.com/decosmic/decosmic/internal/median"
)

// Maximum neighborhood radius for the spatial repair fallback
const maxRepairRadius = 8

// The named outputs of a cleaning run. Invalid pixels hold zero in all
// count images, so differences of outputs stay well defined
type Result struct {
	Width  int32
	Height int32

	Average    *frame.Image // Per-pixel mean count, zero at invalid pixels
	Clean      *frame.Image // Average with artifact pixels repaired
	Difference *frame.Image // Average minus Clean, zero away from artifacts

	Mask   []bool // Validity mask
	Donut  []bool // Donut artifact flags
	Streak []bool // Streak artifact flags

	HitFrac    *frame.Image // Per-pixel fraction of frames with a positive count
	VarAverage *frame.Image // Per-pixel count variance across frames, if requested
	VarClean   *frame.Image // Count variance across unflagged frames, if requested
}

// Composes the outputs of a cleaning run from the aggregate statistics and the
// artifact flags. frameFlags holds the combined donut and streak flags per frame,
// used to pick uncontaminated samples when repairing artifact pixels
func Compose(s *Stack, agg *Aggregate, mask, donut, streak []bool, frameFlags [][]bool, variance bool) *Result {
	r:=&Result{
		Width:  s.Width,
		Height: s.Height,
		Mask:   mask,
		Donut:  donut,
		Streak: streak,
	}

	average:=make([]float32, s.Pixels)
	hitFrac:=make([]float32, s.Pixels)
	for p:=int32(0); p<s.Pixels; p++ {
		if mask[p] {
			average[p]=agg.Mean[p]
			hitFrac[p]=agg.HitFrac[p]
		}
	}

	clean:=make([]float32, s.Pixels)
	copy(clean, average)
	difference:=make([]float32, s.Pixels)
	scratch:=make([]float32, 0, len(s.Frames))
	for p:=int32(0); p<s.Pixels; p++ {
		if !donut[p] && !streak[p] { continue }
		clean[p]=repairPixel(s, average, mask, donut, streak, frameFlags, p, scratch)
		difference[p]=average[p]-clean[p]
	}

	r.Average   =frame.NewImage(s.Width, s.Height, average)
	r.Clean     =frame.NewImage(s.Width, s.Height, clean)
	r.Difference=frame.NewImage(s.Width, s.Height, difference)
	r.HitFrac   =frame.NewImage(s.Width, s.Height, hitFrac)

	if variance {
		r.VarAverage, r.VarClean=composeVariance(s, agg, mask, frameFlags)
	}
	return r
}

// Repairs a single artifact pixel. Prefers the median of the stack samples from
// frames not flagged at this pixel, then the median of nearby valid unflagged
// average values in a growing neighborhood, then the average value itself
func repairPixel(s *Stack, average []float32, mask, donut, streak []bool, frameFlags [][]bool, p int32, scratch []float32) float32 {
	samples:=scratch[:0]
	for i,f:=range s.Frames {
		if !frameFlags[i][p] {
			samples=append(samples, f.Data[p])
		}
	}
	if len(samples)>0 {
		return median.MedianFloat32(samples)
	}

	x, y:=p%s.Width, p/s.Width
	var neighbors []float32
	for radius:=int32(2); radius<=maxRepairRadius; radius++ {
		neighbors=neighbors[:0]
		for ny:=y-radius; ny<=y+radius; ny++ {
			if ny<0 || ny>=s.Height { continue }
			for nx:=x-radius; nx<=x+radius; nx++ {
				if nx<0 || nx>=s.Width { continue }
				q:=ny*s.Width+nx
				if mask[q] && !donut[q] && !streak[q] {
					neighbors=append(neighbors, average[q])
				}
			}
		}
		if len(neighbors)>0 {
			return median.MedianFloat32(neighbors)
		}
	}
	return average[p]
}

// Computes the per-pixel count variance across all frames, and across the
// frames not flagged at each pixel
func composeVariance(s *Stack, agg *Aggregate, mask []bool, frameFlags [][]bool) (varAverage, varClean *frame.Image) {
	va  :=make([]float32, s.Pixels)
	vc  :=make([]float32, s.Pixels)
	for p:=int32(0); p<s.Pixels; p++ {
		if !mask[p] { continue }
		va[p]=agg.StdDev[p]*agg.StdDev[p]

		sum, n:=float32(0), float32(0)
		for i,f:=range s.Frames {
			if !frameFlags[i][p] {
				sum+=f.Data[p]
				n++
			}
		}
		if n<1 { continue }
		mean:=sum/n
		sumSqDiff:=float32(0)
		for i,f:=range s.Frames {
			if !frameFlags[i][p] {
				diff:=f.Data[p]-mean
				sumSqDiff+=diff*diff
			}
		}
		vc[p]=sumSqDiff/n
	}
	return frame.NewImage(s.Width, s.Height, va), frame.NewImage(s.Width, s.Height, vc)
}

// Returns the names of all outputs present in this result
func (r *Result) Names() []string {
	names:=[]string{"average", "clean", "difference", "mask", "donut", "streak", "hitfrac"}
	if r.VarAverage!=nil { names=append(names, "varaverage") }
	if r.VarClean  !=nil { names=append(names, "varclean") }
	return names
}

// Returns the output with the given name as a frame. Flag outputs are
// rendered as images with one for flagged pixels and zero otherwise
func (r *Result) ByName(name string) (*frame.Image, error) {
	switch name {
	case "average":
		return r.Average, nil
	case "clean":
		return r.Clean, nil
	case "difference":
		return r.Difference, nil
	case "mask":
		return maskToImage(r.Mask, r.Width, r.Height), nil
	case "donut":
		return maskToImage(r.Donut, r.Width, r.Height), nil
	case "streak":
		return maskToImage(r.Streak, r.Width, r.Height), nil
	case "hitfrac":
		return r.HitFrac, nil
	case "varaverage":
		if r.VarAverage==nil { return nil, fmt.Errorf("output %s was not computed", name) }
		return r.VarAverage, nil
	case "varclean":
		if r.VarClean==nil { return nil, fmt.Errorf("output %s was not computed", name) }
		return r.VarClean, nil
	}
	return nil, fmt.Errorf("unknown output %q", name)
}

func maskToImage(mask []bool, width, height int32) *frame.Image {
	data:=make([]float32, len(mask))
	for p,v:=range mask {
		if v { data[p]=1 }
	}
	return frame.NewImage(width, height, data)
}

// Saves all outputs as 16-bit grayscale TIFF files named <prefix>_<name>.tif.
// Count images are scaled to their maximum, flag images map one to full scale
func (r *Result) Save(prefix string) error {
	for _,name:=range r.Names() {
		img, err:=r.ByName(name)
		if err!=nil { return err }
		max:=img.Stats.Max()
		if max<=0 { max=1 }
		fileName:=fmt.Sprintf("%s_%s.tif", prefix, name)
		if err:=img.WriteMonoTIFF16ToFile(fileName, 0, max, 1.0); err!=nil {
			return err
		}
	}
	return nil
}
