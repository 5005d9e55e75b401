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
	"errors"
	"math"
	"testing"

	"github.com/decosmic/decosmic/internal/frame"
)

// builds a stack of constant frames of the given value
func constFrames(num, width, height int, value float32) []*frame.Image {
	frames:=make([]*frame.Image, num)
	for i:=0; i<num; i++ {
		f:=frame.NewImage(int32(width), int32(height), nil)
		f.ID=i
		for p:=range f.Data { f.Data[p]=value }
		frames[i]=f
	}
	return frames
}

func countFlags(flags []bool) int {
	n:=0
	for _,v:=range flags {
		if v { n++ }
	}
	return n
}

func TestDonutDetection(t *testing.T) {
	frames:=constFrames(3, 10, 10, 100)
	hot:=5*10+5
	frames[0].Data[hot]=10000

	params:=&Params{ThDonut: 1, ThMask: 0.02, ThStreak: 3, WinStreak: 3, ExpDonut: 1, ExpStreak: 1}
	res, err:=Process(frames, 0, params, false)
	if err!=nil { t.Fatalf("process: %s", err.Error()) }

	// score at the hot pixel is 6600/sqrt(21.78e6), approx 1.414
	if !res.Donut[hot] { t.Errorf("hot pixel not flagged as donut") }
	if n:=countFlags(res.Donut); n!=1 { t.Errorf("%d donut flags; want 1", n) }
	if n:=countFlags(res.Streak); n!=0 { t.Errorf("%d streak flags; want 0", n) }
	if n:=countFlags(res.Mask); n!=100 { t.Errorf("%d valid pixels; want 100", n) }

	if res.Average.Data[hot]!=3400 { t.Errorf("average=%f; want 3400", res.Average.Data[hot]) }
	// repaired from the two unflagged frames
	if res.Clean.Data[hot]!=100 { t.Errorf("clean=%f; want 100", res.Clean.Data[hot]) }
	if res.Difference.Data[hot]!=3300 { t.Errorf("difference=%f; want 3300", res.Difference.Data[hot]) }
}

func TestStreakDetection(t *testing.T) {
	frames:=constFrames(3, 10, 10, 100)
	streakRow, streakFrom, streakTo:=4, 3, 6
	for x:=streakFrom; x<=streakTo; x++ {
		frames[0].Data[streakRow*10+x]=160
	}

	// per streak pixel the score is 40/sqrt(800), approx 1.414. The fully
	// overlapping window means 1.414, partially overlapping windows 1.06
	params:=&Params{ThDonut: 2, ThMask: 0.05, ThStreak: 1.2, WinStreak: 4, ExpDonut: 1, ExpStreak: 1}
	res, err:=Process(frames, 0, params, false)
	if err!=nil { t.Fatalf("process: %s", err.Error()) }

	if n:=countFlags(res.Donut); n!=0 { t.Errorf("%d donut flags; want 0", n) }
	if n:=countFlags(res.Streak); n!=4 { t.Errorf("%d streak flags; want 4", n) }
	for x:=streakFrom; x<=streakTo; x++ {
		p:=streakRow*10+x
		if !res.Streak[p] { t.Errorf("streak pixel %d not flagged", p) }
		if res.Clean.Data[p]!=100 { t.Errorf("clean=%f at %d; want 100", res.Clean.Data[p], p) }
		if res.Difference.Data[p]!=20 { t.Errorf("difference=%f at %d; want 20", res.Difference.Data[p], p) }
	}
}

func TestStreakThresholdMonotonic(t *testing.T) {
	frames:=constFrames(3, 10, 10, 100)
	for x:=3; x<=6; x++ {
		frames[0].Data[4*10+x]=160
	}
	proc, err:=NewProcessor(frames, 0)
	if err!=nil { t.Fatalf("processor: %s", err.Error()) }

	loose:=&Params{ThDonut: 100, ThMask: 0.05, ThStreak: 1.2, WinStreak: 4, ExpDonut: 1, ExpStreak: 1}
	tight:=&Params{ThDonut: 100, ThMask: 0.05, ThStreak: 1.5, WinStreak: 4, ExpDonut: 1, ExpStreak: 1}
	resLoose, err:=proc.Run(loose, false)
	if err!=nil { t.Fatalf("run: %s", err.Error()) }
	resTight, err:=proc.Run(tight, false)
	if err!=nil { t.Fatalf("run: %s", err.Error()) }

	// raising the threshold must never flag additional pixels
	for p,v:=range resTight.Streak {
		if v && !resLoose.Streak[p] {
			t.Errorf("pixel %d flagged at threshold 1.5 but not at 1.2", p)
		}
	}
	if countFlags(resTight.Streak)>countFlags(resLoose.Streak) { t.Fail() }
}

func TestIdenticalFramesStayClean(t *testing.T) {
	frames:=constFrames(3, 8, 8, 0)
	for _,f:=range frames {
		for p:=range f.Data { f.Data[p]=float32(p%7+1) }
	}
	params:=NewParams()
	res, err:=Process(frames, 0, params, false)
	if err!=nil { t.Fatalf("process: %s", err.Error()) }

	if n:=countFlags(res.Donut); n!=0 { t.Errorf("%d donut flags; want 0", n) }
	if n:=countFlags(res.Streak); n!=0 { t.Errorf("%d streak flags; want 0", n) }
	for p,v:=range res.Average.Data {
		if res.Clean.Data[p]!=v { t.Errorf("clean!=average at %d", p) }
		if res.Difference.Data[p]!=0 { t.Errorf("difference=%f at %d; want 0", res.Difference.Data[p], p) }
	}
}

func TestDeterminism(t *testing.T) {
	frames1:=constFrames(4, 16, 16, 0)
	frames2:=constFrames(4, 16, 16, 0)
	for i:=range frames1 {
		for p:=range frames1[i].Data {
			v:=float32((i*31+p*17)%97)
			frames1[i].Data[p]=v
			frames2[i].Data[p]=v
		}
	}
	params:=&Params{ThDonut: 1.5, ThMask: 0.01, ThStreak: 1, WinStreak: 3, ExpDonut: 1, ExpStreak: 1}
	res1, err:=Process(frames1, 0, params, true)
	if err!=nil { t.Fatalf("process: %s", err.Error()) }
	res2, err:=Process(frames2, 0, params, true)
	if err!=nil { t.Fatalf("process: %s", err.Error()) }

	for _,name:=range res1.Names() {
		img1, err:=res1.ByName(name)
		if err!=nil { t.Fatalf("%s: %s", name, err.Error()) }
		img2, _:=res2.ByName(name)
		for p,v:=range img1.Data {
			if img2.Data[p]!=v {
				t.Fatalf("output %s differs at pixel %d: %f vs %f", name, p, v, img2.Data[p])
			}
		}
	}
}

func TestDifferenceInvariant(t *testing.T) {
	frames:=constFrames(3, 12, 12, 50)
	frames[1].Data[5]=4000
	frames[2].Data[77]=3000
	params:=&Params{ThDonut: 1, ThMask: 0.005, ThStreak: 2, WinStreak: 3, ExpDonut: 1, ExpStreak: 1}
	res, err:=Process(frames, 0, params, false)
	if err!=nil { t.Fatalf("process: %s", err.Error()) }

	for p:=range res.Difference.Data {
		artifact:=res.Donut[p] || res.Streak[p]
		if artifact {
			expected:=res.Average.Data[p]-res.Clean.Data[p]
			if res.Difference.Data[p]!=expected {
				t.Errorf("difference=%f at %d; want %f", res.Difference.Data[p], p, expected)
			}
		} else if res.Difference.Data[p]!=0 {
			t.Errorf("difference=%f at non-artifact %d; want 0", res.Difference.Data[p], p)
		}
	}
}

func TestEmptyMask(t *testing.T) {
	frames:=constFrames(3, 4, 4, 0)
	_, err:=Process(frames, 0, NewParams(), false)
	var emptyMask *EmptyMaskError
	if !errors.As(err, &emptyMask) {
		t.Fatalf("expected EmptyMaskError, got %v", err)
	}
}

func TestMaskExcludesDimPixels(t *testing.T) {
	frames:=constFrames(2, 4, 4, 100)
	for _,f:=range frames { f.Data[0]=1 } // normalized mean 0.01, below threshold
	params:=NewParams() // thMask 0.05
	res, err:=Process(frames, 0, params, false)
	if err!=nil { t.Fatalf("process: %s", err.Error()) }
	if res.Mask[0] { t.Errorf("dim pixel 0 should be invalid") }
	if res.Average.Data[0]!=0 { t.Errorf("average=%f at invalid pixel; want 0", res.Average.Data[0]) }
	if n:=countFlags(res.Mask); n!=15 { t.Errorf("%d valid pixels; want 15", n) }
}

func TestShapeMismatch(t *testing.T) {
	var shapeErr *ShapeMismatchError

	_, err:=NewStack(constFrames(1, 4, 4, 1), 0)
	if !errors.As(err, &shapeErr) { t.Errorf("expected ShapeMismatchError for single frame, got %v", err) }

	frames:=constFrames(2, 4, 4, 1)
	frames[1]=frame.NewImage(5, 4, nil)
	_, err=NewStack(frames, 0)
	if !errors.As(err, &shapeErr) { t.Errorf("expected ShapeMismatchError for differing shapes, got %v", err) }
}

func TestParamValidation(t *testing.T) {
	cases:=[]Params{
		{ThDonut: 5, ThMask: 0, ThStreak: 3, WinStreak: 3, ExpDonut: 1, ExpStreak: 1},
		{ThDonut: 5, ThMask: 1, ThStreak: 3, WinStreak: 3, ExpDonut: 1, ExpStreak: 1},
		{ThDonut: 5, ThMask: -0.5, ThStreak: 3, WinStreak: 3, ExpDonut: 1, ExpStreak: 1},
		{ThDonut: 5, ThMask: 0.05, ThStreak: 3, WinStreak: 0, ExpDonut: 1, ExpStreak: 1},
		{ThDonut: 5, ThMask: 0.05, ThStreak: 3, WinStreak: 11, ExpDonut: 1, ExpStreak: 1},
		{ThDonut: 5, ThMask: 0.05, ThStreak: 3, WinStreak: 3, ExpDonut: -1, ExpStreak: 1},
		{ThDonut: 5, ThMask: 0.05, ThStreak: 3, WinStreak: 3, ExpDonut: 1, ExpStreak: -1},
	}
	for i,params:=range cases {
		err:=params.Verify(10, 10)
		var invalid *InvalidParameterError
		if !errors.As(err, &invalid) {
			t.Errorf("case %d: expected InvalidParameterError, got %v", i, err)
		}
	}
	if err:=NewParams().Verify(10, 10); err!=nil {
		t.Errorf("default parameters rejected: %v", err)
	}
}

func TestSanitize(t *testing.T) {
	frames:=constFrames(2, 4, 4, 100)
	frames[0].Data[1]=float32(math.NaN())
	frames[0].Data[2]=-5
	frames[0].Data[3]=20000
	s, err:=NewStack(frames, 10000)
	if err!=nil { t.Fatalf("stack: %s", err.Error()) }
	for _,p:=range []int{1, 2, 3} {
		if s.Frames[0].Data[p]!=0 { t.Errorf("pixel %d=%f; want 0", p, s.Frames[0].Data[p]) }
	}
	if s.Frames[0].Data[0]!=100 { t.Errorf("pixel 0=%f; want 100", s.Frames[0].Data[0]) }
}

func TestExponentSharpensScores(t *testing.T) {
	frames:=constFrames(3, 10, 10, 100)
	hot:=5*10+5
	frames[0].Data[hot]=10000

	proc, err:=NewProcessor(frames, 0)
	if err!=nil { t.Fatalf("processor: %s", err.Error()) }

	// score approx 1.414; squaring lifts it to approx 2, cubing to approx 2.83
	squared:=&Params{ThDonut: 1.9, ThMask: 0.02, ThStreak: 3, WinStreak: 3, ExpDonut: 2, ExpStreak: 1}
	res, err:=proc.Run(squared, false)
	if err!=nil { t.Fatalf("run: %s", err.Error()) }
	if !res.Donut[hot] { t.Errorf("hot pixel not flagged with exponent 2") }

	tight:=&Params{ThDonut: 2.1, ThMask: 0.02, ThStreak: 3, WinStreak: 3, ExpDonut: 2, ExpStreak: 1}
	res, err=proc.Run(tight, false)
	if err!=nil { t.Fatalf("run: %s", err.Error()) }
	if res.Donut[hot] { t.Errorf("hot pixel flagged above the squared score") }
}

func TestAggregateCaching(t *testing.T) {
	frames:=constFrames(2, 4, 4, 100)
	proc, err:=NewProcessor(frames, 0)
	if err!=nil { t.Fatalf("processor: %s", err.Error()) }
	if proc.Aggregate()!=proc.Aggregate() {
		t.Errorf("aggregate not cached across calls")
	}
}

func TestNegativeThresholdFlagsOnlyExcursions(t *testing.T) {
	frames:=constFrames(3, 10, 10, 100)
	hot:=5*10+5
	frames[0].Data[hot]=10000

	// a nonpositive threshold flags every pixel with a positive excursion,
	// and only those. Zero-score pixels must stay unflagged
	params:=&Params{ThDonut: -1, ThMask: 0.02, ThStreak: 100, WinStreak: 3, ExpDonut: 1, ExpStreak: 1}
	res, err:=Process(frames, 0, params, false)
	if err!=nil { t.Fatalf("process: %s", err.Error()) }
	if !res.Donut[hot] { t.Errorf("hot pixel not flagged as donut") }
	if n:=countFlags(res.Donut); n!=1 { t.Errorf("%d donut flags; want 1", n) }

	// on a constant stack no pixel has a positive excursion, so even
	// negative thresholds flag nothing
	frames=constFrames(3, 10, 10, 100)
	params=&Params{ThDonut: -1, ThMask: 0.05, ThStreak: -1, WinStreak: 3, ExpDonut: 1, ExpStreak: 1}
	res, err=Process(frames, 0, params, false)
	if err!=nil { t.Fatalf("process: %s", err.Error()) }
	if n:=countFlags(res.Donut); n!=0 { t.Errorf("%d donut flags on constant stack; want 0", n) }
	if n:=countFlags(res.Streak); n!=0 { t.Errorf("%d streak flags on constant stack; want 0", n) }
}

func TestDonutThresholdMonotonic(t *testing.T) {
	frames:=constFrames(3, 10, 10, 100)
	single:=2*10+2
	double:=7*10+7
	frames[0].Data[single]=10000
	// elevated in two of three frames scores lower, approx 0.707 vs 1.414
	frames[0].Data[double]=200
	frames[1].Data[double]=200

	proc, err:=NewProcessor(frames, 0)
	if err!=nil { t.Fatalf("processor: %s", err.Error()) }

	loose:=&Params{ThDonut: 0.5, ThMask: 0.02, ThStreak: 100, WinStreak: 3, ExpDonut: 1, ExpStreak: 1}
	tight:=&Params{ThDonut: 1.0, ThMask: 0.02, ThStreak: 100, WinStreak: 3, ExpDonut: 1, ExpStreak: 1}
	resLoose, err:=proc.Run(loose, false)
	if err!=nil { t.Fatalf("run: %s", err.Error()) }
	resTight, err:=proc.Run(tight, false)
	if err!=nil { t.Fatalf("run: %s", err.Error()) }

	// raising the threshold must never flag additional pixels
	for p,v:=range resTight.Donut {
		if v && !resLoose.Donut[p] {
			t.Errorf("pixel %d flagged at threshold 1.0 but not at 0.5", p)
		}
	}
	if n:=countFlags(resLoose.Donut); n!=2 { t.Errorf("%d donut flags at threshold 0.5; want 2", n) }
	if n:=countFlags(resTight.Donut); n!=1 { t.Errorf("%d donut flags at threshold 1.0; want 1", n) }
	if !resTight.Donut[single] { t.Errorf("strong pixel lost at threshold 1.0") }
}

func TestStreakWindowMonotonic(t *testing.T) {
	frames:=constFrames(3, 10, 10, 100)
	streakRow, streakFrom, streakTo:=4, 3, 6
	for x:=streakFrom; x<=streakTo; x++ {
		frames[0].Data[streakRow*10+x]=160
	}
	proc, err:=NewProcessor(frames, 0)
	if err!=nil { t.Fatalf("processor: %s", err.Error()) }

	// growing the window up to the streak length must never lose flagged pixels
	prev:=-1
	for _,win:=range []int32{2, 3, 4} {
		params:=&Params{ThDonut: 2, ThMask: 0.05, ThStreak: 1.2, WinStreak: win, ExpDonut: 1, ExpStreak: 1}
		res, err:=proc.Run(params, false)
		if err!=nil { t.Fatalf("run win %d: %s", win, err.Error()) }
		n:=countFlags(res.Streak)
		if prev>=0 && n<prev {
			t.Errorf("window %d flags %d pixels, smaller window flagged %d", win, n, prev)
		}
		for x:=streakFrom; x<=streakTo; x++ {
			if !res.Streak[streakRow*10+x] { t.Errorf("window %d: streak pixel %d not flagged", win, streakRow*10+x) }
		}
		prev=n
	}
}

func TestZeroExponentIsBinaryTest(t *testing.T) {
	frames:=constFrames(3, 10, 10, 100)
	hot:=5*10+5
	frames[0].Data[hot]=10000

	proc, err:=NewProcessor(frames, 0)
	if err!=nil { t.Fatalf("processor: %s", err.Error()) }

	// with exponent zero every positive score maps to one, so the test
	// degenerates to score>0 compared against the threshold via 1>th
	pass:=&Params{ThDonut: 0.5, ThMask: 0.02, ThStreak: 100, WinStreak: 3, ExpDonut: 0, ExpStreak: 1}
	res, err:=proc.Run(pass, false)
	if err!=nil { t.Fatalf("run: %s", err.Error()) }
	if !res.Donut[hot] { t.Errorf("hot pixel not flagged with exponent 0, threshold 0.5") }
	if n:=countFlags(res.Donut); n!=1 { t.Errorf("%d donut flags; want 1", n) }

	block:=&Params{ThDonut: 1.5, ThMask: 0.02, ThStreak: 100, WinStreak: 3, ExpDonut: 0, ExpStreak: 1}
	res, err=proc.Run(block, false)
	if err!=nil { t.Fatalf("run: %s", err.Error()) }
	if n:=countFlags(res.Donut); n!=0 { t.Errorf("%d donut flags with threshold above 1; want 0", n) }
}

func TestVarianceOutputs(t *testing.T) {
	frames:=constFrames(2, 4, 4, 100)
	frames[0].Data[5]=80
	frames[1].Data[5]=120
	params:=&Params{ThDonut: 100, ThMask: 0.05, ThStreak: 100, WinStreak: 3, ExpDonut: 1, ExpStreak: 1}
	res, err:=Process(frames, 0, params, true)
	if err!=nil { t.Fatalf("process: %s", err.Error()) }
	if res.VarAverage==nil || res.VarClean==nil { t.Fatalf("variance outputs missing") }
	// population variance of {80,120} is 400
	if res.VarAverage.Data[5]!=400 { t.Errorf("varaverage=%f; want 400", res.VarAverage.Data[5]) }
	if res.VarAverage.Data[6]>1e-6 { t.Errorf("varaverage=%f at constant pixel; want near 0", res.VarAverage.Data[6]) }
}
