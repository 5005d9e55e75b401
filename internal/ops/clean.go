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


package ops

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/decosmic/decosmic/internal/clean"
	"github.com/decosmic/decosmic/internal/frame"
)

// Cleans a stack of detector frames: aggregates them, detects donut and streak
// artifacts, and produces the named outputs. Takes n inputs, produces one output
// promise per named output
type OpClean struct {
	OpBase
	Params    clean.Params `json:"params"`
	HotPixel  float32      `json:"hotPixel"`  // counts above this are zeroed on ingestion, nonpositive to disable
	Variance  bool         `json:"variance"`  // also compute the variance outputs
	Output    string       `json:"output"`    // file prefix for <prefix>_<name>.tif, empty to skip saving
	Jpg       bool         `json:"jpg"`       // also write false color JPEG previews
}

func init() { SetOperatorFactory(func() Operator { return NewOpCleanDefault()}) } // register the operator for JSON decoding

func NewOpCleanDefault() *OpClean { return NewOpClean(*clean.NewParams(), 10000, false, "", false) }

func NewOpClean(params clean.Params, hotPixel float32, variance bool, output string, jpg bool) *OpClean {
	return &OpClean{
		OpBase   : OpBase{Type: "clean", Active: true},
		Params   : params,
		HotPixel : hotPixel,
		Variance : variance,
		Output   : output,
		Jpg      : jpg,
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpClean) UnmarshalJSON(data []byte) error {
	type defaults OpClean
	def:=defaults(*NewOpCleanDefault())
	err:=json.Unmarshal(data, &def)
	if err!=nil { return err }
	*op=OpClean(def)
	return nil
}

func (op *OpClean) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	if !op.Active { return ins, nil }
	if len(ins)<2 { return nil, fmt.Errorf("%s operator with %d inputs, need at least 2", op.Type, len(ins)) }

	out:=func() (*clean.Result, error) {
		frames, err:=MaterializeAll(ins, c.MaxThreads, false)
		if err!=nil { return nil, err }

		stackMiBs:=int(int64(len(frames))*int64(frames[0].Pixels)*4/1024/1024)
		if stackMiBs>c.StackMemoryMB {
			fmt.Fprintf(c.Log, "WARNING stack needs %d MiB, budget is %d MiB\n", stackMiBs, c.StackMemoryMB)
		}

		fmt.Fprintf(c.Log, "Cleaning %d frames with donut threshold %g exponent %g, "+
			"streak threshold %g exponent %g window %d, mask threshold %g\n",
			len(frames), op.Params.ThDonut, op.Params.ExpDonut,
			op.Params.ThStreak, op.Params.ExpStreak, op.Params.WinStreak, op.Params.ThMask)

		res, err:=clean.Process(frames, op.HotPixel, &op.Params, op.Variance)
		if err!=nil { return nil, err }

		valid, donuts, streaks:=0, 0, 0
		for p:=range res.Mask {
			if res.Mask[p]   { valid++ }
			if res.Donut[p]  { donuts++ }
			if res.Streak[p] { streaks++ }
		}
		fmt.Fprintf(c.Log, "Mask keeps %d of %d pixels; flagged %d donut and %d streak pixels\n",
			valid, len(res.Mask), donuts, streaks)

		if op.Output!="" {
			if err:=res.Save(op.Output); err!=nil { return nil, err }
			fmt.Fprintf(c.Log, "Saved outputs %v with prefix %s\n", res.Names(), op.Output)
		}
		return res, nil
	}

	// clean once, then hand out each named output as its own promise
	var once sync.Once
	var res *clean.Result
	var resErr error
	materialize:=func() (*clean.Result, error) {
		once.Do(func() { res, resErr=out() })
		return res, resErr
	}

	names:=[]string{"average", "clean", "difference", "mask", "donut", "streak"}
	for i,name:=range names {
		i, name:=i, name
		outs=append(outs, func() (*frame.Image, error) {
			r, err:=materialize()
			if err!=nil { return nil, err }
			img, err:=r.ByName(name)
			if err!=nil { return nil, err }
			img.ID=i
			img.FileName=name
			if op.Output!="" && op.Jpg {
				max:=img.Stats.Max()
				if max<=0 { max=1 }
				fileName:=fmt.Sprintf("%s_%s.jpg", op.Output, name)
				if err:=img.WriteFalseColorJPGToFile(fileName, 0, max, 1.0, 95); err!=nil {
					return nil, err
				}
			}
			return img, nil
		})
	}
	return outs, nil
}
