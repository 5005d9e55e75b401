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
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestTIFFRoundTrip(t *testing.T) {
	f:=NewImage(3, 2, []float32{0, 100, 65535, 30000, 5, 12345})
	fileName:=filepath.Join(t.TempDir(), "frame.tif")
	if err:=f.WriteMonoTIFF16ToFile(fileName, 0, 65535, 1.0); err!=nil {
		t.Fatalf("write: %s", err.Error())
	}

	g, err:=NewImageFromFile(fileName, 7)
	if err!=nil { t.Fatalf("read: %s", err.Error()) }
	if g.ID!=7 { t.Errorf("id=%d; want 7", g.ID) }
	if g.Width!=3 || g.Height!=2 { t.Errorf("shape %dx%d; want 3x2", g.Width, g.Height) }
	for i, expected:=range f.Data {
		if g.Data[i]!=expected { t.Errorf("pixel %d=%f; want %f", i, g.Data[i], expected) }
	}
	if g.Stats.Max()!=65535 { t.Errorf("max=%f; want 65535", g.Stats.Max()) }
}

func TestReadEDF(t *testing.T) {
	header:="{\nDim_1 = 3 ;\nDim_2 = 2 ;\nDataType = UnsignedShort ;\nByteOrder = LowByteFirst ;\ncount_time = 0.5 ;\n}\n"
	padded:=make([]byte, 512)
	copy(padded, header)

	pixels:=[]uint16{1, 2, 3, 400, 50000, 6}
	data:=make([]byte, 12)
	for i, p:=range pixels {
		binary.LittleEndian.PutUint16(data[2*i:], p)
	}

	fileName:=filepath.Join(t.TempDir(), "frame.edf")
	if err:=os.WriteFile(fileName, append(padded, data...), 0666); err!=nil {
		t.Fatalf("write: %s", err.Error())
	}

	f, err:=NewImageFromFile(fileName, 0)
	if err!=nil { t.Fatalf("read: %s", err.Error()) }
	if f.Width!=3 || f.Height!=2 { t.Errorf("shape %dx%d; want 3x2", f.Width, f.Height) }
	if f.Exposure!=0.5 { t.Errorf("exposure=%f; want 0.5", f.Exposure) }
	for i, p:=range pixels {
		if f.Data[i]!=float32(p) { t.Errorf("pixel %d=%f; want %d", i, f.Data[i], p) }
	}
}

func TestUnsupportedFormat(t *testing.T) {
	_, err:=NewImageFromFile("frame.xyz", 0)
	if err==nil { t.Errorf("expected error for unsupported format") }
}
