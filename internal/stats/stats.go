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


package stats

import (
	"fmt"
	"math"
	"github.com/valyala/fastrand"
	"github.com/decosmic/decosmic/internal/qsort"
)

// Number of samples used for the randomized location and scale estimators
const numSamples = 128*1024

// Basic statistics on a detector frame data array. Lazily evaluated.
type Stats struct {
	data  []float32 // The underlying data array

	min   float32   // Minimum
	mean  float32   // Mean (average)
	max   float32   // Maximum
	haveMMM bool

	location float32 // Location indicator (median; randomized sampling for large arrays)
	scale    float32 // Scale indicator (MAD; randomized sampling for large arrays)
	haveLocScale bool
}

// Creates statistics about the given data array, without further evaluation
func NewStats(data []float32) *Stats {
	return &Stats{data: data}
}

// Creates statistics about the given data array, with precomputed min, mean and max
func NewStatsWithMMM(data []float32, min, mean, max float32) *Stats {
	return &Stats{data: data, min: min, mean: mean, max: max, haveMMM: true}
}

func (s *Stats) Min() float32 {
	if !s.haveMMM { s.min, s.mean, s.max=calcMinMeanMax(s.data); s.haveMMM=true }
	return s.min
}

func (s *Stats) Mean() float32 {
	if !s.haveMMM { s.min, s.mean, s.max=calcMinMeanMax(s.data); s.haveMMM=true }
	return s.mean
}

func (s *Stats) Max() float32 {
	if !s.haveMMM { s.min, s.mean, s.max=calcMinMeanMax(s.data); s.haveMMM=true }
	return s.max
}

// Returns the median of the data array, sampled for large arrays
func (s *Stats) Location() float32 {
	if !s.haveLocScale { s.calcLocScale() }
	return s.location
}

// Returns the scale of the data array as a Gaussian sigma equivalent,
// based on the median absolute difference. Sampled for large arrays
func (s *Stats) Scale() float32 {
	if !s.haveLocScale { s.calcLocScale() }
	return s.scale
}

func (s *Stats) calcLocScale() {
	if len(s.data)>numSamples {
		samples:=make([]float32, numSamples)
		s.location=FastApproxMedian(s.data, samples)
		s.scale   =FastApproxMAD(s.data, s.location, samples)
		samples=nil
	} else {
		s.location=Median(s.data)
		s.scale   =MAD(s.data, s.location)
	}
	s.haveLocScale=true
}

// Pretty print stats to string
func (s *Stats) String() string {
	return fmt.Sprintf("Min %.6g Max %.6g Mean %.6g Location %.6g Scale %.6g",
	                 	s.Min(), s.Max(), s.Mean(), s.Location(), s.Scale())
}


// Calculate minimum, mean and maximum of given data
func calcMinMeanMax(data []float32) (min, mean, max float32) {
	if len(data)==0 { return 0,0,0 }
	mmin, mmean, mmax:=data[0], float64(0), data[0]
	for _,v := range data {
		if v<mmin { mmin=v }
		if v>mmax { mmax=v }
		mmean+=float64(v)
	}
	return mmin, float32(mmean/float64(len(data))), mmax
}


// Calculate mean and standard deviation of given data
func MeanStdDev(xs []float32) (mean, stdDev float32) {
	xmean:=float32(0)
	for _,x:=range(xs) { xmean+=x }
	xmean/=float32(len(xs))
	xvar:=float32(0)
	for _,x:=range(xs) { diff:=x-xmean; xvar+=diff*diff }
	xvar/=float32(len(xs))
	xstddev:=float32(math.Sqrt(float64(xvar)))
	return xmean, xstddev
}


// Returns the exact median of the data. Does not change the data
func Median(data []float32) float32 {
	tmp:=make([]float32, len(data))
	copy(tmp, data)
	m:=qsort.QSelectMedianFloat32(tmp)
	tmp=nil
	return m
}


// Returns the exact median absolute difference of the data w.r.t. the given location,
// normalized to a Gaussian sigma equivalent. Does not change the data
func MAD(data []float32, location float32) float32 {
	tmp:=make([]float32, len(data))
	for i,d:=range data {
		tmp[i]=float32(math.Abs(float64(d-location)))
	}
	mad:=qsort.QSelectMedianFloat32(tmp)*1.4826
	tmp=nil
	return mad
}


// Calculates fast approximate median of the (presumably large) data by subsampling
// the given number of values and taking the median of that.
// Uses provided samples array as scratchpad
func FastApproxMedian(data []float32, samples []float32) float32 {
	max:=uint32(len(data))
	rng:=fastrand.RNG{}
	for i,_:=range samples {
		index:=rng.Uint32n(max)
		samples[i]=data[index]
	}
	median:=qsort.QSelectMedianFloat32(samples)
	return median
}

// Calculates fast approximate median of absolute differences of the (presumably large) data
// by subsampling the given number of values and taking the MAD of that.
// Uses provided samples array as scratchpad
func FastApproxMAD(data []float32, location float32, samples []float32) float32 {
	max:=uint32(len(data))
	rng:=fastrand.RNG{}
	for i,_:=range samples {
		index:=rng.Uint32n(max)
		samples[i]=float32(math.Abs(float64(data[index]-location)))
	}
	mad:=qsort.QSelectMedianFloat32(samples)*1.4826  // normalize to Gaussian std dev.
	return mad
}
