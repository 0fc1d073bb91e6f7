package commands

import "github.com/fatih/color"

// palette colors status messages. The tree rendering is always written plain.
type palette struct {
	success *color.Color
	failure *color.Color
	warning *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		warning: color.New(color.FgYellow),
	}

	if noColor {
		for _, c := range []*color.Color{p.success, p.failure, p.warning} {
			c.DisableColor()
		}
	}

	return p
}
