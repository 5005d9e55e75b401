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
	"strings"
)

// Reads a detector frame from a file, based on the file name extension.
// Supported formats are TIFF (.tif, .tiff) and ESRF data format (.edf)
func NewImageFromFile(fileName string, id int) (*Image, error) {
	f:=&Image{ID: id, FileName: fileName}
	lower:=strings.ToLower(fileName)
	var err error
	switch {
	case strings.HasSuffix(lower, ".tif"), strings.HasSuffix(lower, ".tiff"):
		err=f.ReadTIFF(fileName)
	case strings.HasSuffix(lower, ".edf"):
		err=f.ReadEDF(fileName)
	default:
		err=fmt.Errorf("%s: unsupported file format", fileName)
	}
	if err!=nil { return nil, err }
	return f, nil
}
