package dom

import (
	"encoding/base64"
	"fmt"
)

const ImageFormatPNG = "png"

// Image is a rasterized region of a page.
type Image struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Data   []byte `json:"-"`
}

// DataURL returns the image encoded as a data URL, suitable for an img src.
func (i Image) DataURL() string {
	return fmt.Sprintf("data:image/%s;base64,%s", i.Format, base64.StdEncoding.EncodeToString(i.Data))
}
