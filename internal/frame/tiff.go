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
	"image"
	"image/color"
	"io"
	"math"
	"os"

	"github.com/decosmic/decosmic/internal/stats"
	"golang.org/x/image/tiff"
)

// Read a grayscale TIFF file into this frame. Color images are converted to luminance
func (f *Image) ReadTIFF(fileName string) error {
	file, err:=os.Open(fileName)
	if err!=nil { return err }
	defer file.Close()
	reader:=bufio.NewReader(file)

	t, err:=tiff.Decode(reader)
	if err!=nil { return err }

	width, height:=t.Bounds().Dx(), t.Bounds().Dy()
	f.FileName=fileName
	f.Width   =int32(width)
	f.Height  =int32(height)
	f.Pixels  =int32(width)*int32(height)
	f.Data    =make([]float32, f.Pixels)

	// keep running stats while converting pixels
	min, max, sum:=float32(math.MaxFloat32), float32(-math.MaxFloat32), float64(0)
	for y:=0; y<height; y++ {
		for x:=0; x<width; x++ {
			c:=color.Gray16Model.Convert(t.At(x, y)).(color.Gray16)
			gray:=float32(c.Y)
			f.Data[y*width+x]=gray

			if gray<min { min=gray }
			if gray>max { max=gray }
			sum+=float64(gray)
		}
	}

	mean:=float32(sum/float64(width)/float64(height))
	f.Stats=stats.NewStatsWithMMM(f.Data, min, mean, max)
	return nil
}

// Write a frame to 16-bit grayscale TIFF, using the given min, max and gamma
func (f *Image) WriteMonoTIFF16ToFile(fileName string, min, max, gamma float32) error {
	file, err:=os.Create(fileName)
	if err!=nil { return err }
	defer file.Close()

	writer:=bufio.NewWriter(file)
	defer writer.Flush()

	return f.WriteMonoTIFF16(writer, min, max, gamma)
}

// Write a frame to 16-bit grayscale TIFF, using the given min, max and gamma
func (f *Image) WriteMonoTIFF16(writer io.Writer, min, max, gamma float32) error {
	width, height:=int(f.Width), int(f.Height)
	img:=image.NewGray16(image.Rectangle{image.Point{0, 0}, image.Point{width, height}})
	scale:=float32(1)
	if max>min { scale=1/(max-min) }
	gammaInv:=float64(1.0/gamma)
	for y:=0; y<height; y++ {
		yoffset:=y*width
		for x:=0; x<width; x++ {
			gray:=f.Data[yoffset+x]
			gray=(gray-min)*scale
			// replace NaNs with zeros for export, else TIFF output breaks
			if math.IsNaN(float64(gray)) || gray<0 { gray=0 }
			if gray>1 { gray=1 }
			if gammaInv!=1.0 {
				gray=float32(math.Pow(float64(gray), gammaInv))
			}
			img.SetGray16(x, y, color.Gray16{uint16(gray*65535)})
		}
	}

	return tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Uncompressed, Predictor: false})
}
