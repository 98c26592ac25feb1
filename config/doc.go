// Package config loads the optional onnxprof YAML configuration file.
//
// The file supplies defaults for command-line flags. [File.Apply] only
// touches flags that were not set explicitly, so the precedence is
// flag, then file, then built-in default:
//
//	profiler:
//	  python: /opt/venv/bin/python
//	  timeout: 10m
//	export:
//	  format: xlsx
//	log:
//	  level: debug
//
// [Schema] describes the file for editors and validation tools.
package config
