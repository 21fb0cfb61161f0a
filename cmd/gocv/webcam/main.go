// Command webcam runs live YOLO detection on a capture device and draws the
// decoded boxes on screen.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-yolo/inference"
	"github.com/nvr-ai/go-yolo/models/detect"
	"github.com/nvr-ai/go-yolo/models/postprocess"
)

func main() {
	var (
		deviceID   = flag.Int("device", 0, "video capture device ID")
		modelPath  = flag.String("model", "yolov8n.onnx", "path to the ONNX model")
		libPath    = flag.String("lib", "", "path to the onnxruntime shared library (empty = platform default)")
		numClasses = flag.Int("classes", 80, "number of classes the model emits")
		slots      = flag.Int("slots", 8400, "candidate slots per frame")
		inputSize  = flag.Int("size", 640, "model input resolution")
		maxOutput  = flag.Int("max", 50, "maximum detections per frame")
		score      = flag.Float64("score", 0.4, "score threshold")
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

	webcam, err := gocv.OpenVideoCapture(*deviceID)
	if err != nil {
		log.Fatalf("opening capture device %d: %v", *deviceID, err)
	}
	defer webcam.Close()

	window := gocv.NewWindow("go-yolo detect")
	defer window.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	green := color.RGBA{0, 255, 0, 0}
	decoder := detect.NewDecoder(*numClasses)
	opts := postprocess.Options{
		MaxOutputSize:  *maxOutput,
		IoUThreshold:   postprocess.DefaultIoUThreshold,
		ScoreThreshold: float32(*score),
	}

	// FPS tracking
	fps := 0.0
	frameCount := 0
	lastTime := time.Now()

	log.Printf("reading camera device %d", *deviceID)
	for {
		if ok := webcam.Read(&frame); !ok {
			log.Printf("cannot read device %d", *deviceID)
			return
		}
		if frame.Empty() {
			continue
		}

		img, err := frame.ToImage()
		if err != nil {
			log.Printf("converting frame: %v", err)
			continue
		}

		if err := inference.PrepareInput(img, session.Input(), *inputSize, *inputSize); err != nil {
			log.Fatalf("preparing input: %v", err)
		}
		if err := session.Run(); err != nil {
			log.Fatalf("inference: %v", err)
		}

		output, err := inference.Channels(session.Output(0), 1, channels, *slots)
		if err != nil {
			log.Fatalf("reshaping output: %v", err)
		}
		batches, err := decoder.Decode(output, opts)
		if err != nil {
			log.Fatalf("decoding: %v", err)
		}

		// Boxes are in model-input coordinates; scale back to the frame.
		scaleX := float32(frame.Cols()) / float32(*inputSize)
		scaleY := float32(frame.Rows()) / float32(*inputSize)
		boxes := []postprocess.BoundingBox{}
		if len(batches) > 0 {
			boxes = batches[0]
		}
		for _, box := range boxes {
			r := box.Rect()
			rect := image.Rect(
				int(r.X1*scaleX), int(r.Y1*scaleY),
				int(r.X2*scaleX), int(r.Y2*scaleY),
			)
			gocv.Rectangle(&frame, rect, green, 2)
			label := fmt.Sprintf("%d %.2f", box.ClassIndex, box.Confidence)
			gocv.PutText(&frame, label, rect.Min, gocv.FontHersheySimplex, 0.5, green, 1)
		}

		frameCount++
		if elapsed := time.Since(lastTime).Seconds(); elapsed >= 1.0 {
			fps = float64(frameCount) / elapsed
			frameCount = 0
			lastTime = time.Now()
		}
		fmt.Printf("found %d objects | FPS: %.2f\n", len(boxes), fps)

		window.IMShow(frame)
		window.WaitKey(1)
	}
}
