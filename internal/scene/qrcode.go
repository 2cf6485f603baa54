package scene

import (
	"errors"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// ErrBadPayload reports a QR payload that cannot be encoded.
var ErrBadPayload = errors.New("qr payload cannot be encoded")

// QRModules encodes payload with medium error recovery and returns the dark
// modules without quiet zone, indexed [row][col].
func QRModules(payload string) ([][]bool, error) {
	if payload == "" {
		return nil, fmt.Errorf("%w: empty", ErrBadPayload)
	}
	q, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes: %v", ErrBadPayload, len(payload), err)
	}
	q.DisableBorder = true
	return q.Bitmap(), nil
}
