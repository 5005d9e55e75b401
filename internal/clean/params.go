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

// Tuning parameters for artifact detection
type Params struct {
	ThDonut   float32 `json:"thDonut"`   // Threshold on the exponentiated donut score
	ThMask    float32 `json:"thMask"`    // Threshold on the normalized mean count for the validity mask, in (0,1)
	ThStreak  float32 `json:"thStreak"`  // Threshold on the exponentiated windowed streak score
	WinStreak int32   `json:"winStreak"` // Streak window length in pixels, at least 1, at most the frame extent
	ExpDonut  float32 `json:"expDonut"`  // Exponent applied to the donut score, nonnegative
	ExpStreak float32 `json:"expStreak"` // Exponent applied to the windowed streak score, nonnegative
}

// Returns parameters with the default settings
func NewParams() *Params {
	return &Params{
		ThDonut:   5,
		ThMask:    0.05,
		ThStreak:  3,
		WinStreak: 3,
		ExpDonut:  1,
		ExpStreak: 1,
	}
}

// Checks all parameters against their domains and the given frame dimensions
func (p *Params) Verify(width, height int32) error {
	if !(p.ThMask>0 && p.ThMask<1) {
		return &InvalidParameterError{"thMask", p.ThMask, "must be in (0,1)"}
	}
	if p.ExpDonut<0 {
		return &InvalidParameterError{"expDonut", p.ExpDonut, "must be nonnegative"}
	}
	if p.ExpStreak<0 {
		return &InvalidParameterError{"expStreak", p.ExpStreak, "must be nonnegative"}
	}
	if p.WinStreak<1 {
		return &InvalidParameterError{"winStreak", float32(p.WinStreak), "must be at least 1"}
	}
	if p.WinStreak>width || p.WinStreak>height {
		return &InvalidParameterError{"winStreak", float32(p.WinStreak), "must not exceed the frame dimensions"}
	}
	return nil
}
