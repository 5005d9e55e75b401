// +build windows

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


package rest

import (
	"github.com/decosmic/decosmic/internal/logf"
)

// Sandboxing is not supported on this platform, settings are ignored
func MakeSandbox(chroot string, setuid int) {
	if len(chroot)>0 || setuid>=0 {
		logf.LogPrintf("Sandboxing not supported on this platform, ignoring\n")
	}
}
