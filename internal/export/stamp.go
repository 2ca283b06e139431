package export

import (
	"fmt"
	"image"

	qrcode "github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"
)

// parityStamp burns a machine-readable marker into a frame corner of
// debug exports: the recording id plus the frame index. A paused preview
// and the exported file can then be compared frame-exactly when chasing
// parity drift.
type parityStamp struct {
	recordingID string
	sizePx      int
	marginPx    int
}

func newParityStamp(recordingID string, frameW, frameH int) *parityStamp {
	size := frameH / 10
	if size < 48 {
		size = 48
	}
	return &parityStamp{
		recordingID: recordingID,
		sizePx:      size,
		marginPx:    8,
	}
}

func (s *parityStamp) draw(dst *image.RGBA, frameIdx int) {
	payload := fmt.Sprintf("%s#%d", s.recordingID, frameIdx)
	qr, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return
	}
	qr.DisableBorder = true
	img := qr.Image(s.sizePx)

	bounds := dst.Bounds()
	target := image.Rect(
		bounds.Max.X-s.sizePx-s.marginPx,
		bounds.Max.Y-s.sizePx-s.marginPx,
		bounds.Max.X-s.marginPx,
		bounds.Max.Y-s.marginPx,
	)
	xdraw.Draw(dst, target, img, img.Bounds().Min, xdraw.Src)
}
