package validate

import (
	"fmt"
	"image"
	"path"
	"path/filepath"
	"strings"

	// Raster formats embedded media may use. Registration lets
	// image.DecodeConfig sniff them all.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// rasterExts lists the media extensions the decodability pass covers.
// Vector formats like .emf and .wmf have no decoder here and are skipped.
var rasterExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// checkMedia warns for every raster image in the package that does not
// decode. A truncated or mislabeled image survives packing fine but
// renders as a broken picture, so it is worth flagging early.
func (c *Checker) checkMedia(dir string, files []string, res *Result) {
	for _, name := range files {
		if !rasterExts[strings.ToLower(path.Ext(name))] {
			continue
		}
		f, err := c.afs.Open(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		_, format, err := image.DecodeConfig(f)
		f.Close()
		if err != nil {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("media part %s does not decode: %v", name, err))
			continue
		}
		if !extMatchesFormat(path.Ext(name), format) {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("media part %s is labeled %s but contains %s data", name, path.Ext(name), format))
		}
	}
}

func extMatchesFormat(ext, format string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return format == "jpeg"
	case ".tif", ".tiff":
		return format == "tiff"
	default:
		return strings.TrimPrefix(strings.ToLower(ext), ".") == format
	}
}
