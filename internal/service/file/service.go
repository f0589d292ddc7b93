package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Import for PNG decoding support
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/storage"
	"golang.org/x/image/draw"
)

var ErrInvalidImage = errors.New("invalid image: only jpg and png are accepted")

const (
	maxImageSize  = 150 * 1024
	minImageSize  = 50 * 1024
	maxImageWidth = 1280
)

type FileService interface {
	// NormalizeImage applies EXIF orientation, caps the width and re-encodes as JPEG
	NormalizeImage(data []byte) ([]byte, error)

	// Face frames captured at check-in/check-out
	UploadFaceCapture(ctx context.Context, employeeID string, at time.Time, image []byte, action string) (string, error)

	// Reference photos stored with a face profile
	UploadFaceEnrollment(ctx context.Context, employeeID string, image []byte) (string, error)

	// Generic operations
	DeleteFile(ctx context.Context, path string) error
	GetFileURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}

type fileServiceImpl struct {
	storage storage.FileStorage
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
	}
}

// NormalizeImage implements FileService.
func (s *fileServiceImpl) NormalizeImage(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	if b := img.Bounds(); b.Dx() > maxImageWidth {
		height := int(math.Round(float64(b.Dy()) * float64(maxImageWidth) / float64(b.Dx())))
		img = resizeImage(img, maxImageWidth, height)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return compressImage(buf.Bytes(), maxImageSize, minImageSize)
}

// UploadFaceCapture stores the frame used to verify a toggle
// Path: attendance/{date}/{employeeID}-{action}-{unix}-{uuid}.jpg
// The uuid keeps captures from the same second apart.
func (s *fileServiceImpl) UploadFaceCapture(ctx context.Context, employeeID string, at time.Time, image []byte, action string) (string, error) {
	dateStr := at.Format("2006-01-02")
	newFilename := fmt.Sprintf("%s-%s-%d-%s.jpg", employeeID, action, at.Unix(), uuid.NewString())
	path := "attendance/" + dateStr + "/" + newFilename

	uploadedPath, err := s.storage.Save(ctx, path, bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("failed to upload face capture: %w", err)
	}
	return uploadedPath, nil
}

// UploadFaceEnrollment stores the reference photo of a face profile
func (s *fileServiceImpl) UploadFaceEnrollment(ctx context.Context, employeeID string, image []byte) (string, error) {
	newFilename := fmt.Sprintf("%s-%s.jpg", employeeID, uuid.New().String())
	path := "faces/" + employeeID + "/" + newFilename

	uploadedPath, err := s.storage.Save(ctx, path, bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("failed to upload face photo: %w", err)
	}
	return uploadedPath, nil
}

// DeleteFile deletes a file
func (s *fileServiceImpl) DeleteFile(ctx context.Context, path string) error {
	return s.storage.Remove(ctx, path)
}

// GetFileURL generates URL to access file. Local files are served behind
// admin auth, so expiry is not enforced here.
func (s *fileServiceImpl) GetFileURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return s.storage.URL(path), nil
}

// ==================== HELPER FUNCTIONS ====================

// compressImage compresses an image to target size range
// maxSize: maximum allowed size (e.g., 150KB)
// minSize: minimum target size (e.g., 50KB)
func compressImage(buffer []byte, maxSize int, minSize int) ([]byte, error) {
	if len(buffer) <= maxSize {
		return buffer, nil
	}

	img, _, err := image.Decode(bytes.NewReader(buffer))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	originalWidth := bounds.Dx()
	originalHeight := bounds.Dy()

	// Start with quality 85 and reduce progressively
	quality := 85
	var compressed []byte

	for quality >= 50 {
		buf := new(bytes.Buffer)
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
		compressed = buf.Bytes()

		if len(compressed) <= maxSize {
			return compressed, nil
		}
		quality -= 5
	}

	// Still too large, scale down towards the middle of the range
	targetSize := (maxSize + minSize) / 2
	ratio := math.Sqrt(float64(targetSize) / float64(len(compressed)))
	newWidth := max(int(float64(originalWidth)*ratio), 320)
	newHeight := max(int(float64(originalHeight)*ratio), 240)

	resized := resizeImage(img, newWidth, newHeight)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, resized, &jpeg.Options{Quality: 70}); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}

// resizeImage resizes an image to the specified dimensions using high-quality interpolation
func resizeImage(src image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	// Use CatmullRom for high-quality downscaling
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
