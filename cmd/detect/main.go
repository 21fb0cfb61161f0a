// Command detect runs a YOLO detection model over a directory of images and
// prints the decoded bounding boxes as JSON, one line per image.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"image"
	"log"
	"os"

	_ "image/jpeg"
	_ "image/png"

	"github.com/nvr-ai/go-yolo/inference"
	"github.com/nvr-ai/go-yolo/models/detect"
	"github.com/nvr-ai/go-yolo/models/postprocess"
	"github.com/nvr-ai/go-yolo/util"
)

func main() {
	var (
		modelPath  = flag.String("model", "yolov8n.onnx", "path to the ONNX model")
		libPath    = flag.String("lib", "", "path to the onnxruntime shared library (empty = platform default)")
		dir        = flag.String("dir", ".", "directory of images to process")
		numClasses = flag.Int("classes", 80, "number of classes the model emits")
		slots      = flag.Int("slots", 8400, "candidate slots per image")
		inputSize  = flag.Int("size", 640, "model input resolution")
		maxOutput  = flag.Int("max", 100, "maximum detections per image (0 = return all slots)")
		iou        = flag.Float64("iou", float64(postprocess.DefaultIoUThreshold), "NMS IoU threshold")
		score      = flag.Float64("score", 0.25, "score threshold")
	)
	flag.Parse()

	channels := 4 + *numClasses
	session, err := inference.NewSession(inference.Config{
		ModelPath:    *modelPath,
		LibraryPath:  *libPath,
		InputName:    "images",
		OutputNames:  []string{"output0"},
		InputShape:   []int64{1, 3, int64(*inputSize), int64(*inputSize)},
		OutputShapes: [][]int64{{1, int64(channels), int64(*slots)}},
	})
	if err != nil {
		log.Fatalf("creating session: %v", err)
	}
	defer session.Close()

	files, err := util.LoadDirectoryImageFiles(*dir)
	if err != nil {
		log.Fatalf("loading images from %s: %v", *dir, err)
	}
	if len(files) == 0 {
		log.Fatalf("no images found in %s", *dir)
	}

	decoder := detect.NewDecoder(*numClasses)
	opts := postprocess.Options{
		MaxOutputSize:  *maxOutput,
		IoUThreshold:   float32(*iou),
		ScoreThreshold: float32(*score),
	}

	encoder := json.NewEncoder(os.Stdout)
	for _, file := range files {
		img, _, err := image.Decode(bytes.NewReader(file.Data))
		if err != nil {
			log.Printf("skipping %s: %v", file.Path, err)
			continue
		}

		if err := inference.PrepareInput(img, session.Input(), *inputSize, *inputSize); err != nil {
			log.Fatalf("preparing input for %s: %v", file.Path, err)
		}
		if err := session.Run(); err != nil {
			log.Fatalf("inference on %s: %v", file.Path, err)
		}

		output, err := inference.Channels(session.Output(0), 1, channels, *slots)
		if err != nil {
			log.Fatalf("reshaping output for %s: %v", file.Path, err)
		}
		batches, err := decoder.Decode(output, opts)
		if err != nil {
			log.Fatalf("decoding %s: %v", file.Path, err)
		}

		line := struct {
			Path  string                    `json:"path"`
			Boxes []postprocess.BoundingBox `json:"boxes"`
		}{Path: file.Path, Boxes: []postprocess.BoundingBox{}}
		if len(batches) > 0 {
			line.Boxes = batches[0]
		}
		if err := encoder.Encode(line); err != nil {
			log.Fatalf("encoding result for %s: %v", file.Path, err)
		}
	}
}
