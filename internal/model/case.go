// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package model

import "strconv"

// Case is one worklist row: an image/mask pair identified by a unique ID.
// An empty Image or Mask means the path is absent.
type Case struct {
	ID    string
	Image string
	Mask  string
}

// HasPaths reports whether both the image and mask paths are present.
func (c Case) HasPaths() bool {
	return c.Image != "" && c.Mask != ""
}

// Label is an integer voxel value of a mask identifying one region of interest.
type Label int

func (l Label) String() string {
	return strconv.Itoa(int(l))
}
