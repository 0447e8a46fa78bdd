package services

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
	"unicode"

	"github.com/alimgiray/gitprofile/internal/models"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	WidgetWidth  = 600
	WidgetHeight = 200

	widgetPadding = 20
	avatarSize    = 80
	accentStrip   = 4
	barHeight     = 8
)

// DefaultWidgetColor is the accent color used when none or an invalid one is given.
const DefaultWidgetColor = "#2563eb"

type widgetTheme struct {
	background color.RGBA
	text       color.RGBA
	muted      color.RGBA
	track      color.RGBA
	accent     color.RGBA
}

func newWidgetTheme(name, accent string) widgetTheme {
	theme := widgetTheme{
		background: mustHex("#ffffff"),
		text:       mustHex("#000000"),
		muted:      mustHex("#71717a"),
		track:      mustHex("#f4f4f5"),
	}
	if name == "dark" {
		theme.background = mustHex("#1a1b1e")
		theme.text = mustHex("#ffffff")
		theme.muted = mustHex("#a1a1aa")
		theme.track = mustHex("#27272a")
	}

	c, err := ParseHexColor(accent)
	if err != nil {
		c = mustHex(DefaultWidgetColor)
	}
	theme.accent = c
	return theme
}

// ParseHexColor parses "#rrggbb" or "#rgb", with or without the leading '#'.
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func mustHex(s string) color.RGBA {
	c, err := ParseHexColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// canvas wraps the widget image with the drawing helpers the cards share.
type canvas struct {
	img   *image.RGBA
	theme widgetTheme
}

func newCanvas(theme widgetTheme) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, WidgetWidth, WidgetHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(theme.background), image.Point{}, draw.Src)

	c := &canvas{img: img, theme: theme}
	c.fillRect(image.Rect(0, 0, accentStrip, WidgetHeight), theme.accent)
	return c
}

func (c *canvas) fillRect(r image.Rectangle, col color.Color) {
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Over)
}

// text draws s with its top-left corner at (x, y). basicfont only ships a
// 7x13 face, so larger sizes are nearest-neighbour upscales. It returns the
// drawn width.
func (c *canvas) text(s string, x, y, scale int, col color.Color) int {
	face := basicfont.Face7x13
	d := &font.Drawer{Face: face}
	w := d.MeasureString(s).Ceil()
	if w == 0 {
		return 0
	}
	if scale < 1 {
		scale = 1
	}

	glyphs := image.NewRGBA(image.Rect(0, 0, w, face.Height))
	d.Dst = glyphs
	d.Src = image.NewUniform(col)
	d.Dot = fixed.P(0, face.Ascent)
	d.DrawString(s)

	dst := image.Rect(x, y, x+w*scale, y+face.Height*scale)
	draw.NearestNeighbor.Scale(c.img, dst, glyphs, glyphs.Bounds(), draw.Over, nil)
	return w * scale
}

func textWidth(s string, scale int) int {
	return (&font.Drawer{Face: basicfont.Face7x13}).MeasureString(s).Ceil() * scale
}

// fit truncates s so that it is at most width pixels wide at scale.
func fit(s string, width, scale int) string {
	maxChars := width / (basicfont.Face7x13.Advance * scale)
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(runes[:maxChars])
	}
	return string(runes[:maxChars-3]) + "..."
}

// wrap splits s into at most maxLines lines of width pixels at scale.
func wrap(s string, width, scale, maxLines int) []string {
	maxChars := width / (basicfont.Face7x13.Advance * scale)
	var lines []string
	var line string
	for _, word := range strings.Fields(s) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if len([]rune(candidate)) <= maxChars {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
		line = word
	}
	if line != "" {
		lines = append(lines, line)
	}

	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] = fit(lines[maxLines-1]+" ...", width, scale)
	}
	for i := range lines {
		lines[i] = fit(lines[i], width, scale)
	}
	return lines
}

// circle is an alpha mask of a disc inscribed in a square of side d.
type circle struct {
	d int
}

func (c *circle) ColorModel() color.Model { return color.AlphaModel }

func (c *circle) Bounds() image.Rectangle { return image.Rect(0, 0, c.d, c.d) }

func (c *circle) At(x, y int) color.Color {
	r := float64(c.d) / 2
	dx, dy := float64(x)+0.5-r, float64(y)+0.5-r
	if dx*dx+dy*dy <= r*r {
		return color.Alpha{A: 0xff}
	}
	return color.Alpha{}
}

// avatar draws img scaled into a circle at (x, y), or an accent disc with
// initials when img is nil.
func (c *canvas) avatar(img image.Image, initials string, x, y int) {
	r := image.Rect(x, y, x+avatarSize, y+avatarSize)
	mask := &circle{d: avatarSize}

	if img == nil {
		draw.DrawMask(c.img, r, image.NewUniform(c.theme.accent), image.Point{}, mask, image.Point{}, draw.Over)
		scale := 3
		w := textWidth(initials, scale)
		c.text(initials, x+(avatarSize-w)/2, y+(avatarSize-basicfont.Face7x13.Height*scale)/2, scale, color.White)
		return
	}

	scaled := image.NewRGBA(image.Rect(0, 0, avatarSize, avatarSize))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
	draw.DrawMask(c.img, r, scaled, image.Point{}, mask, image.Point{}, draw.Over)
}

// Initials returns up to two uppercase initials of a display name.
func Initials(name string) string {
	initials := make([]rune, 0, 2)
	for _, word := range strings.Fields(name) {
		r := []rune(word)[0]
		initials = append(initials, unicode.ToUpper(r))
		if len(initials) == 2 {
			break
		}
	}
	return string(initials)
}

func drawProfileCard(c *canvas, user *models.User, avatar image.Image) {
	x := widgetPadding
	c.avatar(avatar, Initials(user.DisplayName()), x, widgetPadding)

	infoX := x + avatarSize + 16
	infoWidth := WidgetWidth - infoX - widgetPadding

	c.text(fit(user.DisplayName(), infoWidth, 2), infoX, 24, 2, c.theme.text)
	c.text(fit("@"+user.Login, infoWidth, 1), infoX, 56, 1, c.theme.muted)
	for i, line := range wrap(user.Bio, infoWidth, 1, 3) {
		c.text(line, infoX, 78+i*16, 1, c.theme.text)
	}

	y := WidgetHeight - widgetPadding - 26
	x += c.text(strconv.Itoa(user.PublicRepos), x, y, 2, c.theme.text)
	x += c.text(" repositories", x, y+13, 1, c.theme.muted) + 24
	x += c.text(strconv.Itoa(user.Followers), x, y, 2, c.theme.text)
	c.text(" followers", x, y+13, 1, c.theme.muted)
}

func drawLanguageCard(c *canvas, languages []models.LanguageEntry) {
	x := widgetPadding
	width := WidgetWidth - 2*widgetPadding
	c.text("Language Statistics", x, widgetPadding, 2, c.theme.text)

	if len(languages) == 0 {
		c.text("No language data available.", x, 70, 1, c.theme.muted)
		return
	}

	for i, lang := range languages {
		if i == 3 {
			break
		}
		y := 64 + i*42

		pct := fmt.Sprintf("%.1f%%", lang.Percentage)
		c.text(fit(lang.Name, width-textWidth(pct, 1)-8, 1), x, y, 1, c.theme.text)
		c.text(pct, x+width-textWidth(pct, 1), y, 1, c.theme.text)

		barY := y + 18
		c.fillRect(image.Rect(x, barY, x+width, barY+barHeight), c.theme.track)

		fill, err := ParseHexColor(lang.Color)
		if err != nil {
			fill = c.theme.accent
		}
		filled := int(float64(width) * lang.Percentage / 100)
		c.fillRect(image.Rect(x, barY, x+filled, barY+barHeight), fill)
	}
}

func drawRepositoryCard(c *canvas, repo *models.Repository) {
	x := widgetPadding
	width := WidgetWidth - 2*widgetPadding

	c.text(fit(repo.Name, width, 2), x, widgetPadding, 2, c.theme.text)

	description := "No description provided."
	if repo.Description != nil && *repo.Description != "" {
		description = *repo.Description
	}
	for i, line := range wrap(description, width, 1, 3) {
		c.text(line, x, 58+i*16, 1, c.theme.muted)
	}

	y := WidgetHeight - widgetPadding - 13
	x += c.text(fmt.Sprintf("Stars %d", repo.Stars), x, y, 1, c.theme.text) + 24
	x += c.text(fmt.Sprintf("Forks %d", repo.Forks), x, y, 1, c.theme.text) + 24
	if language := repo.PrimaryLanguage(); language != "" {
		dot := image.Rect(x, y+3, x+8, y+11)
		fill, err := ParseHexColor(LanguageColor(language))
		if err != nil {
			fill = c.theme.accent
		}
		c.fillRect(dot, fill)
		c.text(language, x+12, y, 1, c.theme.text)
	}
}

func drawRepositoryNotFound(c *canvas, repoName, handle string) {
	msg := fmt.Sprintf("Repository not found for user %s.", handle)
	if repoName != "" {
		msg = fmt.Sprintf("Repository %q not found for user %s.", repoName, handle)
	}
	msg = fit(msg, WidgetWidth-2*widgetPadding, 1)

	w := textWidth(msg, 1)
	c.text(msg, (WidgetWidth-w)/2, (WidgetHeight-basicfont.Face7x13.Height)/2, 1, c.theme.muted)
}
