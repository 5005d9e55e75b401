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

import "fmt"

// A parameter value outside its documented domain
type InvalidParameterError struct {
	Name   string
	Value  float32
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%g: %s", e.Name, e.Value, e.Reason)
}

// A frame stack that cannot be aggregated: too few frames, or differing dimensions
type ShapeMismatchError struct {
	Detail string
}

func (e *ShapeMismatchError) Error() string {
	return "frame stack mismatch: "+e.Detail
}

// A mask threshold that leaves no valid pixels
type EmptyMaskError struct {
	Threshold float32
	MaxMean   float32
}

func (e *EmptyMaskError) Error() string {
	return fmt.Sprintf("mask threshold %g leaves no valid pixels (maximum mean count %g)", e.Threshold, e.MaxMean)
}
