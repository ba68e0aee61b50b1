package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"

	"github.com/skip2/go-qrcode"

	"cinema-ticketing/internal/models"
)

// BookingPayload is what ends up inside the QR square: just enough for the
// door scanner to find and redeem the booking. The payload is AES-encrypted
// so a screenshot of someone else's ticket cannot be forged from the raw id.
type BookingPayload struct {
	BookingID  string   `json:"booking_id"`
	ShowtimeID string   `json:"showtime_id"`
	Seats      []string `json:"seats"`
}

type QRGenerator struct {
	secret []byte
}

func NewQRGenerator(secret string) *QRGenerator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &QRGenerator{secret: hashed[:]}
}

// GenerateBookingQR renders the encrypted payload as a 256px PNG.
func (q *QRGenerator) GenerateBookingQR(b models.Booking) ([]byte, error) {
	payload := BookingPayload{
		BookingID:  b.BookingID,
		ShowtimeID: b.ShowtimeID,
		Seats:      b.Seats,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptAES(data, q.secret)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

// EncodePayload returns the encrypted string form without rendering an
// image. The scanner tests and the receipt screen use this directly.
func (q *QRGenerator) EncodePayload(b models.Booking) (string, error) {
	payload := BookingPayload{
		BookingID:  b.BookingID,
		ShowtimeID: b.ShowtimeID,
		Seats:      b.Seats,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return encryptAES(data, q.secret)
}

// DecodePayload reverses EncodePayload for the redemption flow: the camera
// hands over the scanned string and we recover the booking reference.
func (q *QRGenerator) DecodePayload(scanned string) (*BookingPayload, error) {
	data, err := decryptAES(scanned, q.secret)
	if err != nil {
		return nil, err
	}
	var payload BookingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errors.New("scanned code is not a booking payload")
	}
	if payload.BookingID == "" {
		return nil, errors.New("scanned code has no booking id")
	}
	return &payload, nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

func decryptAES(encoded string, key []byte) ([]byte, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, errors.New("ciphertext too short")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	iv := ciphertext[:aes.BlockSize]
	data := make([]byte, len(ciphertext)-aes.BlockSize)
	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(data, ciphertext[aes.BlockSize:])

	return data, nil
}
