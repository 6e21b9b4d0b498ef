// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package verification

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/zeebo/blake3"

	"github.com/connectx-campus/connectx/api"
)

// ErrNotImage is returned for a file whose content is not an image.
var ErrNotImage = errors.New("verification: file is not an image")

// Image is an upload candidate whose content has been checked.
type Image struct {
	Name        string
	ContentType string
	Data        []byte

	// Digest is the BLAKE3-256 hash of Data.
	Digest [32]byte
}

// NewImage sniffs data and rejects anything that is not an image. The
// file name plays no part in the check. There is no size limit.
func NewImage(name string, data []byte) (Image, error) {
	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return Image{}, fmt.Errorf("%w: %s looks like %s", ErrNotImage, name, detected.String())
	}
	return Image{
		Name:        name,
		ContentType: detected.String(),
		Data:        data,
		Digest:      blake3.Sum256(data),
	}, nil
}

// ReadImage loads and checks the image at path.
func ReadImage(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("verification: %w", err)
	}
	return NewImage(filepath.Base(path), data)
}

func (i Image) part() api.FilePart {
	return api.FilePart{Filename: i.Name, ContentType: i.ContentType, Content: i.Data}
}
