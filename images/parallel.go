package images

import (
	"runtime"
	"sync"
)

// Parallel executes fn over [0, dataSize) split across one goroutine per CPU.
// Small inputs are processed serially because goroutine overhead dominates.
//
// Arguments:
// - dataSize: The size of the data to process.
// - fn: Function to execute for each partition (receives start and end indices).
//
// @example
//
//	Parallel(height, func(start, end int) {
//	    for y := start; y < end; y++ {
//	        // Process row y
//	    }
//	})
func Parallel(dataSize int, fn func(partStart, partEnd int)) {
	numGoroutines := runtime.NumCPU()

	if dataSize < numGoroutines*2 {
		fn(0, dataSize)
		return
	}

	partSize := dataSize / numGoroutines

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		partStart := i * partSize
		partEnd := partStart + partSize

		// Last partition gets any remaining data.
		if i == numGoroutines-1 {
			partEnd = dataSize
		}

		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(partStart, partEnd)
	}

	wg.Wait()
}
