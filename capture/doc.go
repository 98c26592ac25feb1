// Package capture runs the external ONNX model profiler and captures the
// report it prints.
//
// The profiler is a Python library whose only output channel is standard
// output, so each run is a child interpreter process with stdout collected
// into a buffer owned by that run. [Runner.Start] runs off the caller's
// goroutine and hands back exactly one [Result]:
//
//	r := capture.NewConfig().NewRunner(logger)
//	res := <-r.Start(ctx, capture.Request{Path: "resnet50.onnx"})
//	if res.Err != nil {
//	    return res.Err
//	}
//
// A failed run never returns partial output.
package capture
