package main

import (
	"fmt"
	"image"
	"os"

	"github.com/BourgeoisBear/rasterm"
	"github.com/bodgit/apoc/render"
	"github.com/gookit/color"
)

var (
	solid = color.FgLightWhite
	empty = color.FgDarkGray
)

// show draws img inline if the terminal has an image protocol, falling
// back to colour escapes.
func show(img image.Image) {
	if rasterm.IsTermKitty() {
		rasterm.Settings{}.KittyWriteImage(os.Stdout, img)
		fmt.Printf("\n")
		return
	}
	if rasterm.IsTermItermWez() {
		rasterm.Settings{}.ItermWriteImage(os.Stdout, img)
		fmt.Printf("\n")
		return
	}
	if capable, err := rasterm.IsSixelCapable(); capable && err == nil {
		rasterm.Settings{}.SixelWriteImage(os.Stdout, render.Paletted(img, nil))
		fmt.Printf("\n")
		return
	}
	printANSI(img)
}

// printANSI draws img two columns per pixel using background colours.
// Transparent pixels are left blank.
func printANSI(img image.Image) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a == 0 {
				fmt.Printf("\x1b[0m  ")
				continue
			}
			color.RGB(uint8(r>>8), uint8(g>>8), uint8(bl>>8), true).Printf("  ")
		}
		fmt.Printf("\x1b[0m\n")
	}
}
