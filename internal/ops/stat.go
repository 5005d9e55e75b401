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

	"github.com/decosmic/decosmic/internal/frame"
	"github.com/decosmic/decosmic/internal/stats"
)

// Prints frame statistics and an estimate of the dark background level,
// obtained from a Gaussian fit to the count histogram
type OpStat struct {
	OpUnaryBase
	Bins int `json:"bins"` // number of histogram bins for the background fit
}

func init() { SetOperatorFactory(func() Operator { return NewOpStatDefault()}) } // register the operator for JSON decoding

func NewOpStatDefault() *OpStat { return NewOpStat(4096) }

func NewOpStat(bins int) *OpStat {
	op:=OpStat{
		OpUnaryBase : OpUnaryBase{OpBase : OpBase{Type: "stat", Active: true}},
		Bins        : bins,
	}
	op.OpUnaryBase.Apply=op.Apply // assign class method to superclass abstract method
	return &op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpStat) UnmarshalJSON(data []byte) error {
	type defaults OpStat
	def:=defaults(*NewOpStatDefault())
	err:=json.Unmarshal(data, &def)
	if err!=nil { return err }
	*op=OpStat(def)
	op.OpUnaryBase.Apply=op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpStat) Apply(f *frame.Image, c *Context) (result *frame.Image, err error) {
	min, max:=f.Stats.Min(), f.Stats.Max()
	if op.Bins<2 || max<=min {
		fmt.Fprintf(c.Log, "%d: %s %v\n", f.ID, f.FileName, f.Stats)
		return f, nil
	}

	bins:=make([]int32, op.Bins)
	stats.Histogram(f.Data, min, max, bins)
	mode, sigma, err:=stats.GetModeStdDevFromHistogram(bins, min, max)
	if err!=nil {
		fmt.Fprintf(c.Log, "%d: %s %v; background fit failed: %s\n", f.ID, f.FileName, f.Stats, err.Error())
		return f, nil
	}

	fmt.Fprintf(c.Log, "%d: %s %v Background %.4g Sigma %.4g\n", f.ID, f.FileName, f.Stats, mode, sigma)
	return f, nil
}
