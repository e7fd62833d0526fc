package matrix

import (
	"image"

	"golang.org/x/image/font/basicfont"
)

// thumbGlyphs are 3x5 bitmaps for the characters the small labels use.
// The order matches thumbRanges.
var thumbGlyphs = [][5]string{
	{"...", "...", "...", "...", "..."}, // ' '
	{"...", "...", "###", "...", "..."}, // '-'
	{"###", "#.#", "#.#", "#.#", "###"}, // '0'
	{".#.", "##.", ".#.", ".#.", "###"},
	{"###", "..#", "###", "#..", "###"},
	{"###", "..#", ".##", "..#", "###"},
	{"#.#", "#.#", "###", "..#", "..#"},
	{"###", "#..", "###", "..#", "###"},
	{"###", "#..", "###", "#.#", "###"},
	{"###", "..#", "..#", ".#.", ".#."},
	{"###", "#.#", "###", "#.#", "###"},
	{"###", "#.#", "###", "..#", "###"}, // '9'
	{"##.", "..#", ".#.", "...", ".#."}, // U+FFFD
}

var thumbRanges = []basicfont.Range{
	{Low: ' ', High: ' ' + 1, Offset: 0},
	{Low: '-', High: '-' + 1, Offset: 1},
	{Low: '0', High: '9' + 1, Offset: 2},
	{Low: '\ufffd', High: '\ufffe', Offset: 12},
}

const (
	thumbWidth   = 3
	thumbAscent  = 5
	thumbDescent = 1
)

// thumbFace is a 4x6 cell bitmap face for digits, the minus sign and space.
var thumbFace = &basicfont.Face{
	Advance: thumbWidth + 1,
	Width:   thumbWidth,
	Height:  thumbAscent + thumbDescent,
	Ascent:  thumbAscent,
	Descent: thumbDescent,
	Mask:    thumbMask(),
	Ranges:  thumbRanges,
}

func thumbMask() *image.Alpha {
	cell := thumbAscent + thumbDescent
	m := image.NewAlpha(image.Rect(0, 0, thumbWidth, cell*len(thumbGlyphs)))
	for i, g := range thumbGlyphs {
		for y, row := range g {
			for x := range thumbWidth {
				if row[x] == '#' {
					m.Pix[m.PixOffset(x, i*cell+y)] = 0xFF
				}
			}
		}
	}
	return m
}
