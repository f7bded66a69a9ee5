package display

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/cellgauge/cell-gauge/classify"
)

// Columns is the panel width in characters.
const Columns = 16

// millivoltCutover is where line 1 switches from millivolts to volts.
// This is a unit-formatting boundary only and is unrelated to the DEAD
// classification threshold, which sits higher.
const millivoltCutover = 1.0

const insertPrompt = "Insert AA cell"

// Frame formats one sample as the two fixed-width display lines.
func Frame(volts float32, tier classify.Tier) [2]string {
	var line1 string
	if volts < millivoltCutover {
		line1 = fmt.Sprintf("%d mV", int(math32.Round(volts*1000)))
	} else {
		line1 = fmt.Sprintf("%.3f V", volts)
	}

	var line2 string
	if tier == classify.Absent {
		line2 = insertPrompt
	} else {
		line2 = "Status: " + tier.String()
	}
	return [2]string{pad(line1), pad(line2)}
}

// pad fills a line to the panel width so leftovers from the previous
// frame get overwritten.
func pad(line string) string {
	if len(line) >= Columns {
		return line[:Columns]
	}
	return line + spaces[:Columns-len(line)]
}

const spaces = "                "
