// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package render

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/tomtom215/figura/internal/logging"
)

// fontKey identifies one cached face.
type fontKey struct {
	family string
	size   float64
}

// FontCache resolves (family, size) pairs to font faces. Lookups miss to a
// small ordered list of platform font files, then to the embedded Go Regular
// face. Font unavailability is never fatal. The cache is append-only and safe
// for concurrent use.
type FontCache struct {
	mu       sync.Mutex
	faces    map[fontKey]font.Face
	fallback *opentype.Font
}

// familyPaths lists candidate font files per family, searched in order.
// Platform-specific: only paths for the current OS are probed.
var familyPaths = map[string]map[string][]string{
	"linux": {
		"sans-serif": {
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
			"/usr/share/fonts/TTF/DejaVuSans.ttf",
		},
		"serif": {
			"/usr/share/fonts/truetype/dejavu/DejaVuSerif.ttf",
			"/usr/share/fonts/truetype/liberation/LiberationSerif-Regular.ttf",
		},
		"monospace": {
			"/usr/share/fonts/truetype/dejavu/DejaVuSansMono.ttf",
			"/usr/share/fonts/truetype/liberation/LiberationMono-Regular.ttf",
		},
	},
	"darwin": {
		"sans-serif": {
			"/System/Library/Fonts/Helvetica.ttc",
			"/Library/Fonts/Arial.ttf",
		},
		"serif": {
			"/System/Library/Fonts/Times.ttc",
		},
		"monospace": {
			"/System/Library/Fonts/Menlo.ttc",
		},
	},
	"windows": {
		"sans-serif": {
			`C:\Windows\Fonts\arial.ttf`,
			`C:\Windows\Fonts\segoeui.ttf`,
		},
		"serif": {
			`C:\Windows\Fonts\times.ttf`,
		},
		"monospace": {
			`C:\Windows\Fonts\consola.ttf`,
		},
	},
}

// NewFontCache creates a font cache with the embedded Go Regular fallback
// pre-parsed. Parsing the embedded TTF cannot fail at runtime.
func NewFontCache() *FontCache {
	fallback, err := opentype.Parse(goregular.TTF)
	if err != nil {
		// Embedded font data is compiled in; this parse is deterministic.
		panic(fmt.Sprintf("parse embedded fallback font: %v", err))
	}
	return &FontCache{
		faces:    make(map[fontKey]font.Face),
		fallback: fallback,
	}
}

// Face returns a font face for the family at the given point size. Resolution
// order: cache, platform file paths for the family, embedded fallback.
func (fc *FontCache) Face(family string, size float64) font.Face {
	key := fontKey{family: family, size: size}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	if face, ok := fc.faces[key]; ok {
		return face
	}

	face := fc.resolve(family, size)
	fc.faces[key] = face
	return face
}

// resolve loads a face from disk or falls back (must be called with mu held).
func (fc *FontCache) resolve(family string, size float64) font.Face {
	for _, path := range familyPaths[runtime.GOOS][family] {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		fnt, err := opentype.Parse(data)
		if err != nil {
			logging.Debug().Str("path", path).Err(err).Msg("font file unparsable, trying next")
			continue
		}
		face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			continue
		}
		return face
	}

	logging.Debug().Str("family", family).Float64("size", size).Msg("font family unavailable, using embedded fallback")
	face, err := opentype.NewFace(fc.fallback, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		// NewFace over the embedded font only fails on invalid options.
		panic(fmt.Sprintf("fallback font face: %v", err))
	}
	return face
}
