// Package build runs the project's build step to validate a resolved merge.
package build
