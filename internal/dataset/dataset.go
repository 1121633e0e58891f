// Package dataset reads YOLO-style annotated image datasets and extracts the
// labeled crops that become the reference embedding set. A dataset root holds
// images/, labels/ with one .txt per image, and classes.txt mapping class ids
// to names.
package dataset

import (
	"bufio"
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"habitat-mapper/internal/progress"

	_ "image/jpeg"
	_ "image/png"
)

// Crop is one labeled object cut out of a dataset image.
type Crop struct {
	Image     *image.RGBA
	ImagePath string
	ObjectID  int // line index within the label file
	ClassID   int
	ClassName string
	BBox      [4]int // x1, y1, x2, y2 in image pixels
}

// LoadClasses reads classes.txt, one class name per line in id order. Blank
// lines are kept out but do not shift ids, so they are only safe at the end.
func LoadClasses(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class list: %w", err)
	}
	defer file.Close()

	var classes []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		classes = append(classes, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read class list: %w", err)
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("class list %s is empty", path)
	}
	return classes, nil
}

// CollectCrops walks labels/*.txt under root, pairs each label file with its
// image in images/ (.jpg first, then .png), and cuts out every valid
// bounding box. Label files without a matching image are logged and skipped;
// degenerate boxes and out-of-range class ids are skipped per line.
func CollectCrops(root string, classes []string, rep progress.Reporter) ([]Crop, error) {
	labelsDir := filepath.Join(root, "labels")
	imagesDir := filepath.Join(root, "images")
	if _, err := os.Stat(labelsDir); err != nil {
		return nil, fmt.Errorf("labels directory not found: %w", err)
	}
	if _, err := os.Stat(imagesDir); err != nil {
		return nil, fmt.Errorf("images directory not found: %w", err)
	}

	labelFiles, err := filepath.Glob(filepath.Join(labelsDir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("scan labels directory: %w", err)
	}
	sort.Strings(labelFiles)

	rep.StartStage("collecting crops", len(labelFiles))
	defer rep.EndStage()

	var crops []Crop
	for _, labelPath := range labelFiles {
		stem := strings.TrimSuffix(filepath.Base(labelPath), ".txt")
		imagePath, img, err := openDatasetImage(imagesDir, stem)
		if err != nil {
			rep.Warnf("no matching image for %s", stem)
			rep.Advance()
			continue
		}

		fileCrops, err := cropsFromLabelFile(labelPath, imagePath, img, classes, rep)
		if err != nil {
			return nil, err
		}
		crops = append(crops, fileCrops...)
		rep.Advance()
	}
	if len(crops) == 0 {
		return nil, fmt.Errorf("no valid crops found under %s", root)
	}
	return crops, nil
}

func openDatasetImage(imagesDir, stem string) (string, image.Image, error) {
	for _, ext := range []string{".jpg", ".png"} {
		path := filepath.Join(imagesDir, stem+ext)
		file, err := os.Open(path)
		if err != nil {
			continue
		}
		img, _, err := image.Decode(file)
		file.Close()
		if err != nil {
			return "", nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return path, img, nil
	}
	return "", nil, fmt.Errorf("no image for stem %s", stem)
}

func cropsFromLabelFile(labelPath, imagePath string, img image.Image, classes []string, rep progress.Reporter) ([]Crop, error) {
	file, err := os.Open(labelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open label file: %w", err)
	}
	defer file.Close()

	bounds := img.Bounds()
	imgW := float64(bounds.Dx())
	imgH := float64(bounds.Dy())

	var crops []Crop
	scanner := bufio.NewScanner(file)
	line := -1
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 5 {
			rep.Warnf("malformed annotation at %s:%d", labelPath, line+1)
			continue
		}
		classID, err := strconv.Atoi(fields[0])
		if err != nil || classID < 0 || classID >= len(classes) {
			rep.Warnf("invalid class id %q in %s", fields[0], labelPath)
			continue
		}
		vals := make([]float64, 4)
		ok := true
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			rep.Warnf("malformed annotation at %s:%d", labelPath, line+1)
			continue
		}

		// YOLO boxes are center and size, normalized to [0,1].
		cx, cy := vals[0]*imgW, vals[1]*imgH
		w, h := vals[2]*imgW, vals[3]*imgH
		x1 := int(max(0, cx-w/2))
		y1 := int(max(0, cy-h/2))
		x2 := int(min(imgW, cx+w/2))
		y2 := int(min(imgH, cy+h/2))
		if x2 <= x1 || y2 <= y1 {
			continue
		}

		crops = append(crops, Crop{
			Image:     cropRGBA(img, x1, y1, x2, y2),
			ImagePath: imagePath,
			ObjectID:  line,
			ClassID:   classID,
			ClassName: classes[classID],
			BBox:      [4]int{x1, y1, x2, y2},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read label file %s: %w", labelPath, err)
	}
	return crops, nil
}

func cropRGBA(img image.Image, x1, y1, x2, y2 int) *image.RGBA {
	min := img.Bounds().Min
	rect := image.Rect(min.X+x1, min.Y+y1, min.X+x2, min.Y+y2)
	out := image.NewRGBA(image.Rect(0, 0, x2-x1, y2-y1))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out
}
