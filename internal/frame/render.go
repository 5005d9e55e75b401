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
	"image/jpeg"
	"io"
	"math"
	"os"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Write a frame to grayscale JPG, using the given min, max and gamma
func (f *Image) WriteMonoJPGToFile(fileName string, min, max, gamma float32, quality int) error {
	file, err:=os.Create(fileName)
	if err!=nil { return err }
	defer file.Close()

	writer:=bufio.NewWriter(file)
	defer writer.Flush()

	return f.WriteMonoJPG(writer, min, max, gamma, quality)
}

// Write a frame to grayscale JPG, using the given min, max and gamma
func (f *Image) WriteMonoJPG(writer io.Writer, min, max, gamma float32, quality int) error {
	width, height:=int(f.Width), int(f.Height)
	img:=image.NewGray(image.Rectangle{image.Point{0, 0}, image.Point{width, height}})
	gammaInv:=float64(1.0/gamma)
	for y:=0; y<height; y++ {
		yoffset:=y*width
		for x:=0; x<width; x++ {
			gray:=normalize(f.Data[yoffset+x], min, max, gammaInv)
			img.SetGray(x, y, color.Gray{uint8(gray*255)})
		}
	}

	return jpeg.Encode(writer, img, &jpeg.Options{Quality: quality})
}

// Write a frame to false color JPG, using the given min, max and gamma.
// Low counts render blue, high counts render red
func (f *Image) WriteFalseColorJPGToFile(fileName string, min, max, gamma float32, quality int) error {
	file, err:=os.Create(fileName)
	if err!=nil { return err }
	defer file.Close()

	writer:=bufio.NewWriter(file)
	defer writer.Flush()

	return f.WriteFalseColorJPG(writer, min, max, gamma, quality)
}

// Write a frame to false color JPG, using the given min, max and gamma
func (f *Image) WriteFalseColorJPG(writer io.Writer, min, max, gamma float32, quality int) error {
	width, height:=int(f.Width), int(f.Height)
	img:=image.NewRGBA(image.Rectangle{image.Point{0, 0}, image.Point{width, height}})
	gammaInv:=float64(1.0/gamma)
	for y:=0; y<height; y++ {
		yoffset:=y*width
		for x:=0; x<width; x++ {
			gray:=normalize(f.Data[yoffset+x], min, max, gammaInv)
			// hue ramp from blue (240) for low counts to red (0) for high counts
			c:=colorful.Hsv(240.0*(1.0-float64(gray)), 1, float64(gray))
			r, g, b:=c.RGB255()
			img.SetRGBA(x, y, color.RGBA{r, g, b, 255})
		}
	}

	return jpeg.Encode(writer, img, &jpeg.Options{Quality: quality})
}

// Scale a pixel value into [0,1] with the given bounds and gamma.
// Replaces NaNs with zeros for export, else JPG output breaks
func normalize(v, min, max float32, gammaInv float64) float32 {
	scale:=float32(1)
	if max>min { scale=1/(max-min) }
	v=(v-min)*scale
	if math.IsNaN(float64(v)) || v<0 { v=0 }
	if v>1 { v=1 }
	if gammaInv!=1.0 {
		v=float32(math.Pow(float64(v), gammaInv))
	}
	return v
}
