package cli

import (
	"fmt"
	"image/png"
	"os"

	"github.com/qeesung/image2ascii/convert"
)

const maxChartWidth = 120

// renderChart converts the PNG at path into terminal art at most width
// columns wide.
func renderChart(path string, width int, colored bool) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return "", fmt.Errorf("failed to decode chart %s: %w", path, err)
	}

	if width > maxChartWidth {
		width = maxChartWidth
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return "", fmt.Errorf("chart %s is empty", path)
	}
	// Terminal cells are about twice as tall as they are wide.
	height := width * bounds.Dy() / bounds.Dx() / 2
	if height < 1 {
		height = 1
	}

	opts := convert.DefaultOptions
	opts.FixedWidth = width
	opts.FixedHeight = height
	opts.FitScreen = false
	opts.Colored = colored
	return convert.NewImageConverter().Image2ASCIIString(img, &opts), nil
}
