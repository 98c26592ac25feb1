// Package selfprofile writes Go runtime profiles of the running command.
//
// It is a debugging aid for onnxprof itself and has nothing to do with
// profiling ONNX models. Profiles are requested by name through
// [Config.RegisterFlags] and written to one directory:
//
//	onnxprof profile model.onnx --pprof=cpu,heap --pprof-dir=/tmp/prof
//
// The CLI starts a [Session] in PersistentPreRunE and stops it after the
// command returns.
package selfprofile
