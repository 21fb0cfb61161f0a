// Package inference - thin adapter between the ONNX runtime and the decode
// engine. It owns session lifecycle, input preparation, and reshaping flat
// output buffers into the nested tensors the decoders consume; it performs no
// decoding itself.
package inference

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// Config describes one model session.
type Config struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string `json:"model_path"`
	// LibraryPath overrides the onnxruntime shared library location. Empty
	// uses the platform default from SharedLibraryPath().
	LibraryPath string `json:"library_path,omitempty"`
	// InputName is the model's input tensor name (typically "images").
	InputName string `json:"input_name"`
	// OutputNames are the model's output tensor names, in output order
	// (e.g. ["output0"] for detect, ["output0", "output1"] for segment).
	OutputNames []string `json:"output_names"`
	// InputShape is the input tensor shape, e.g. [1, 3, 640, 640].
	InputShape []int64 `json:"input_shape"`
	// OutputShapes are the output tensor shapes, one per output name.
	OutputShapes [][]int64 `json:"output_shapes"`
	// IntraOpThreads parallelizes execution within graph nodes. 0 uses the
	// runtime default.
	IntraOpThreads int `json:"intra_op_threads"`
	// InterOpThreads parallelizes execution across graph nodes. 0 uses the
	// runtime default.
	InterOpThreads int `json:"inter_op_threads"`
}

// Session wraps an ONNX runtime session with pre-allocated input and output
// tensors. The decode engine never sees this type; callers pull the raw
// output buffers and hand them to the decoders.
type Session struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	outputs []*ort.Tensor[float32]
}

var ortInit sync.Once

// NewSession initializes the runtime environment (once per process) and
// creates a session with tensors matching the configured shapes.
//
// Arguments:
//   - config: The session configuration.
//
// Returns:
//   - *Session: The ready session.
//   - error: An error if environment or session creation fails.
func NewSession(config Config) (*Session, error) {
	libPath := config.LibraryPath
	if libPath == "" {
		libPath = SharedLibraryPath()
	}

	var initErr error
	ortInit.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		initErr = ort.InitializeEnvironment()
	})
	if initErr != nil {
		return nil, errors.Wrap(initErr, "initializing ONNX runtime environment")
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(config.InputShape...))
	if err != nil {
		return nil, errors.Wrap(err, "creating input tensor")
	}

	outputs := make([]*ort.Tensor[float32], len(config.OutputShapes))
	arbitrary := make([]ort.ArbitraryTensor, len(config.OutputShapes))
	for i, shape := range config.OutputShapes {
		out, err := ort.NewEmptyTensor[float32](ort.NewShape(shape...))
		if err != nil {
			input.Destroy()
			for _, prev := range outputs[:i] {
				prev.Destroy()
			}
			return nil, errors.Wrapf(err, "creating output tensor %d", i)
		}
		outputs[i] = out
		arbitrary[i] = out
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "creating session options")
	}
	defer options.Destroy()

	options.SetIntraOpNumThreads(config.IntraOpThreads)
	options.SetInterOpNumThreads(config.InterOpThreads)
	options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended)

	session, err := ort.NewAdvancedSession(
		config.ModelPath,
		[]string{config.InputName},
		config.OutputNames,
		[]ort.ArbitraryTensor{input},
		arbitrary,
		options,
	)
	if err != nil {
		input.Destroy()
		for _, out := range outputs {
			out.Destroy()
		}
		return nil, errors.Wrap(err, "creating ONNX session")
	}

	return &Session{session: session, input: input, outputs: outputs}, nil
}

// Run executes one forward pass over the currently prepared input.
func (s *Session) Run() error {
	return errors.Wrap(s.session.Run(), "running inference")
}

// Input returns the session's input tensor for PrepareInput.
func (s *Session) Input() *ort.Tensor[float32] {
	return s.input
}

// Output returns the i-th output tensor's flat data buffer. The buffer is
// owned by the session and overwritten on the next Run; decoders copy what
// they keep.
func (s *Session) Output(i int) []float32 {
	return s.outputs[i].GetData()
}

// Close releases the session and its tensors.
func (s *Session) Close() {
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	for _, out := range s.outputs {
		out.Destroy()
	}
	s.outputs = nil
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
}

// SharedLibraryPath returns the default onnxruntime shared library location
// for the current platform.
func SharedLibraryPath() string {
	switch runtime.GOOS {
	case "windows":
		return "./third_party/onnxruntime.dll"
	case "darwin":
		return "./third_party/libonnxruntime.dylib"
	default:
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so"
		}
		return "./third_party/onnxruntime.so"
	}
}
