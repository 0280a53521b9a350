package relay

// Capture is the text and optional image taken from one selection
type Capture struct {
	Text string
	// Image is a data URI; empty means no image was captured
	Image string
}

// Empty reports whether there is nothing to send
func (c Capture) Empty() bool {
	return c.Text == "" && c.Image == ""
}

// HasImage reports whether image data was captured
func (c Capture) HasImage() bool {
	return c.Image != ""
}
