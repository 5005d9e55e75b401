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
	"math"
	"testing"
)

func almostEqual(a, b, epsilon float32) bool {
	return float32(math.Abs(float64(a-b)))<=epsilon
}

func TestMinMeanMax(t *testing.T) {
	data:=[]float32{3, 1, 4, 1, 5, 9, 2, 6}
	s:=NewStats(data)
	if s.Min()!=1 { t.Errorf("min=%f; want 1", s.Min()) }
	if s.Max()!=9 { t.Errorf("max=%f; want 9", s.Max()) }
	if !almostEqual(s.Mean(), 3.875, 1e-6) { t.Errorf("mean=%f; want 3.875", s.Mean()) }
}

func TestMeanStdDev(t *testing.T) {
	data:=[]float32{2, 4, 4, 4, 5, 5, 7, 9}
	mean, stdDev:=MeanStdDev(data)
	if !almostEqual(mean, 5, 1e-6) { t.Errorf("mean=%f; want 5", mean) }
	if !almostEqual(stdDev, 2, 1e-6) { t.Errorf("stdDev=%f; want 2", stdDev) }
}

func TestMedian(t *testing.T) {
	odd:=[]float32{9, 1, 5, 3, 7}
	if m:=Median(odd); m!=5 { t.Errorf("median=%f; want 5", m) }
	even:=[]float32{4, 1, 3, 2}
	if m:=Median(even); m!=2.5 { t.Errorf("median=%f; want 2.5", m) }
	// must not change the data
	if odd[0]!=9 || odd[4]!=7 { t.Errorf("median changed its input") }
}

func TestMAD(t *testing.T) {
	data:=[]float32{1, 1, 2, 2, 4, 6, 9}
	location:=Median(data)
	if location!=2 { t.Errorf("location=%f; want 2", location) }
	mad:=MAD(data, location)
	if !almostEqual(mad, 1*1.4826, 1e-5) { t.Errorf("mad=%f; want %f", mad, 1.4826) }
}

func TestLocationScaleLarge(t *testing.T) {
	// large array triggers the sampled estimators
	data:=make([]float32, 256*1024)
	for i,_:=range data { data[i]=float32(i%1000) }
	s:=NewStats(data)
	loc:=s.Location()
	if loc<400 || loc>600 { t.Errorf("location=%f; want near 500", loc) }
	if s.Scale()<=0 { t.Errorf("scale=%f; want positive", s.Scale()) }
}

func TestHistogram(t *testing.T) {
	data:=[]float32{0, 0, 1, 2, 2, 2, 3}
	bins:=make([]int32, 4)
	Histogram(data, 0, 3, bins)
	expected:=[]int32{2, 1, 3, 1}
	for i,e:=range expected {
		if bins[i]!=e { t.Errorf("bin %d=%d; want %d", i, bins[i], e) }
	}
	x, _:=GetPeak(bins, 0, 3)
	if !almostEqual(x, 2.5, 1e-6) { t.Errorf("peak at %f; want 2.5", x) }
}
