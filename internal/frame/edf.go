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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/decosmic/decosmic/internal/stats"
)

// EDF headers come in multiples of this many bytes
const edfHeaderBlockSize = 512

// Read an ESRF data format (.edf) file into this frame.
// The format is an ASCII header block of "key = value ;" lines padded to a
// multiple of 512 bytes, followed by raw binary pixel data
func (f *Image) ReadEDF(fileName string) error {
	file, err:=os.Open(fileName)
	if err!=nil { return err }
	defer file.Close()
	reader:=bufio.NewReader(file)

	header, err:=readEDFHeader(reader)
	if err!=nil { return fmt.Errorf("%s: %s", fileName, err.Error()) }

	width, err:=headerInt(header, "Dim_1")
	if err!=nil { return fmt.Errorf("%s: %s", fileName, err.Error()) }
	height, err:=headerInt(header, "Dim_2")
	if err!=nil { return fmt.Errorf("%s: %s", fileName, err.Error()) }

	byteOrder:=binary.ByteOrder(binary.LittleEndian)
	if strings.EqualFold(header["ByteOrder"], "HighByteFirst") {
		byteOrder=binary.BigEndian
	}

	dataType:=header["DataType"]
	bytesPerPixel, err:=edfBytesPerPixel(dataType)
	if err!=nil { return fmt.Errorf("%s: %s", fileName, err.Error()) }

	f.FileName=fileName
	f.Width   =int32(width)
	f.Height  =int32(height)
	f.Pixels  =int32(width)*int32(height)
	f.Data    =make([]float32, f.Pixels)
	if ct, ok:=header["count_time"]; ok {
		if e, err:=strconv.ParseFloat(strings.TrimSpace(ct), 32); err==nil {
			f.Exposure=float32(e)
		}
	}

	raw:=make([]byte, int(f.Pixels)*bytesPerPixel)
	if _, err:=io.ReadFull(reader, raw); err!=nil {
		return fmt.Errorf("%s: truncated pixel data: %s", fileName, err.Error())
	}

	min, max, sum:=float32(math.MaxFloat32), float32(-math.MaxFloat32), float64(0)
	for i:=int32(0); i<f.Pixels; i++ {
		off:=int(i)*bytesPerPixel
		var v float32
		switch dataType {
		case "UnsignedByte":
			v=float32(raw[off])
		case "UnsignedShort":
			v=float32(byteOrder.Uint16(raw[off:]))
		case "SignedInteger":
			v=float32(int32(byteOrder.Uint32(raw[off:])))
		case "UnsignedInteger", "UnsignedLong":
			v=float32(byteOrder.Uint32(raw[off:]))
		case "FloatValue", "Float":
			v=math.Float32frombits(byteOrder.Uint32(raw[off:]))
		case "DoubleValue":
			v=float32(math.Float64frombits(byteOrder.Uint64(raw[off:])))
		}
		f.Data[i]=v
		if v<min { min=v }
		if v>max { max=v }
		sum+=float64(v)
	}

	mean:=float32(sum/float64(f.Pixels))
	f.Stats=stats.NewStatsWithMMM(f.Data, min, mean, max)
	return nil
}

func edfBytesPerPixel(dataType string) (int, error) {
	switch dataType {
	case "UnsignedByte":
		return 1, nil
	case "UnsignedShort":
		return 2, nil
	case "SignedInteger", "UnsignedInteger", "UnsignedLong", "FloatValue", "Float":
		return 4, nil
	case "DoubleValue":
		return 8, nil
	}
	return 0, fmt.Errorf("unsupported EDF data type %q", dataType)
}

// Reads the EDF header, consuming whole 512-byte blocks until the closing brace
func readEDFHeader(r io.Reader) (map[string]string, error) {
	var raw []byte
	block:=make([]byte, edfHeaderBlockSize)
	for {
		if _, err:=io.ReadFull(r, block); err!=nil {
			return nil, fmt.Errorf("truncated EDF header: %s", err.Error())
		}
		raw=append(raw, block...)
		if strings.Contains(string(block), "}") { break }
		if len(raw)>64*edfHeaderBlockSize {
			return nil, fmt.Errorf("EDF header exceeds %d bytes without closing brace", len(raw))
		}
	}

	text:=string(raw)
	open:=strings.Index(text, "{")
	close:=strings.Index(text, "}")
	if open<0 || close<open {
		return nil, fmt.Errorf("malformed EDF header")
	}

	header:=map[string]string{}
	for _, line:=range strings.Split(text[open+1:close], ";") {
		parts:=strings.SplitN(line, "=", 2)
		if len(parts)!=2 { continue }
		key  :=strings.TrimSpace(parts[0])
		value:=strings.TrimSpace(parts[1])
		if key!="" { header[key]=value }
	}
	return header, nil
}

func headerInt(header map[string]string, key string) (int, error) {
	value, ok:=header[key]
	if !ok { return 0, fmt.Errorf("EDF header missing %s", key) }
	n, err:=strconv.Atoi(value)
	if err!=nil { return 0, fmt.Errorf("EDF header %s=%q is not a number", key, value) }
	if n<=0 { return 0, fmt.Errorf("EDF header %s=%d out of range", key, n) }
	return n, nil
}
